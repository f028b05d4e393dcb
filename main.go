package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"breath-classification/wav"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Expected 'serve' subcommand")
		os.Exit(1)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "serve":
		// Non-WAV uploads (m4a, ogg, webm) need ffmpeg for conversion.
		if err := wav.CheckFFmpegAvailable(); err != nil {
			log.Printf("WARNING: %v\n", err)
			log.Println("The server will start but only WAV uploads will decode until ffmpeg is installed.")
		} else {
			log.Println("ffmpeg is available")
		}

		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		protocol := serveCmd.String("proto", "http", "Protocol to use (http or https)")
		port := serveCmd.String("p", "8000", "Port to use")
		serveCmd.Parse(os.Args[2:])
		serve(*protocol, *port)
	default:
		fmt.Println("Expected 'serve' subcommand")
		os.Exit(1)
	}
}
