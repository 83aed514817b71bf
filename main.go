package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Grounded on horgh-catbox/ircd.go's main: parse args, load config, build
// and start the server, then block until told to stop. Signal-driven
// shutdown is adapted from the oragono-style server.go pattern of
// registering SIGINT/SIGTERM on a channel rather than just log.Fatal-ing.
func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	args := getArgs()
	if args == nil {
		os.Exit(1)
	}

	config, err := loadConfig(args.ConfigFile)
	if err != nil {
		log.Fatalf("unable to load configuration: %s", err)
	}

	if args.ServerName != "" {
		config.ServerName = args.ServerName
	}

	core := NewCore(config)
	server := NewServer(core)

	if err := server.Start(); err != nil {
		log.Fatalf("unable to start server: %s", err)
	}

	log.Printf("%s listening", config.ServerName)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	log.Printf("shutting down")
	server.Shutdown()
	log.Printf("server shutdown cleanly")
}
