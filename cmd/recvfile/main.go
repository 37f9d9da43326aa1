package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/atsheehan/filetransfer/internal/filetransfer"
)

type arguments struct {
	Port       int
	OutDir     string
	StatusAddr string
}

func parseArguments() *arguments {
	args := &arguments{}
	flag.IntVar(&args.Port, "p", 0, "UDP port to receive on (required)")
	flag.StringVar(&args.OutDir, "o", ".", "Directory to write the received file into")
	flag.StringVar(&args.StatusAddr, "status-addr", "", "Optional host:port to serve transfer status as JSON")
	flag.Parse()

	if args.Port == 0 {
		log.Fatalf("[error] Specify -p <recv_port>.")
	}

	return args
}

func main() {
	args := parseArguments()

	status := filetransfer.NewTransferStatus("")
	var statusServer *filetransfer.StatusServer
	if args.StatusAddr != "" {
		statusServer = &filetransfer.StatusServer{Addr: args.StatusAddr, Status: status}
		statusServer.Start()
	}

	receiver := &filetransfer.Receiver{
		Port:   args.Port,
		Status: status,
		Open: func(filename string) (filetransfer.ByteSink, error) {
			return os.Create(filepath.Join(args.OutDir, filename))
		},
	}

	result, err := receiver.Run()
	status.MarkDone()
	if statusServer != nil {
		statusServer.Stop()
	}
	if err != nil {
		log.Fatalf("receive: %v", err)
	}

	fmt.Printf("[stats] file size: %d bytes\n", result.FileSize)
	fmt.Printf("received %s\n", result.Filename)
}
