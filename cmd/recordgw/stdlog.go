package main

import (
	"log"

	"github.com/rs/zerolog"
)

// newStdLog manda os erros internos do net/http para o zerolog.
func newStdLog(logger zerolog.Logger) *log.Logger {
	l := logger.With().Str("component", "http").Logger()
	return log.New(l, "", 0)
}
