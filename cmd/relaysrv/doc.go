// Package `relaysrv` implements server application relaying text lines over TCP.
//
// Every line received from a connected client is delivered to all other clients
// prefixed with the sender's name. The first line sent by a client is its name.
//
// To compile relay server locally, run from package directory:
//
//	go install .
//
// Or quickly launch server with command:
//
//	go run . -port 1234
//
// Configuration may be also provided with YAML file (-config), .env file
// in working directory and RELAY_* environment variables, command line flags win.
package main
