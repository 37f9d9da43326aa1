package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/atsheehan/filetransfer/internal/filetransfer"
)

type arguments struct {
	Receiver      string
	File          string
	FileDirectory string
	QueueExisting bool
	StatusAddr    string
}

func parseArguments() *arguments {
	args := &arguments{}
	flag.StringVar(&args.Receiver, "r", "", "Receiver address as host:port (required)")
	flag.StringVar(&args.File, "f", "", "File to send (mutually exclusive with -watch-dir)")
	flag.StringVar(&args.FileDirectory, "watch-dir", "", "Directory to monitor for files to send (mutually exclusive with -f)")
	flag.BoolVar(&args.QueueExisting, "watch-dir-existing", false, "Queue files already present in -watch-dir at startup")
	flag.StringVar(&args.StatusAddr, "status-addr", "", "Optional host:port to serve transfer status as JSON")
	flag.Parse()

	if args.Receiver == "" {
		log.Fatalf("[error] Specify -r <recv_host>:<recv_port>.")
	}
	if args.File != "" && args.FileDirectory != "" {
		log.Fatalf("[error] Specify either -f or -watch-dir, not both.")
	}
	if args.File == "" && args.FileDirectory == "" {
		log.Fatalf("[error] Either -f or -watch-dir must be specified.")
	}

	return args
}

func main() {
	args := parseArguments()

	dest, err := net.ResolveUDPAddr("udp", args.Receiver)
	if err != nil {
		log.Fatalf("resolve receiver address %q: %v", args.Receiver, err)
	}

	if args.FileDirectory != "" {
		runWatchMode(args, dest)
		return
	}

	if err := sendOneFile(args.File, dest, args.StatusAddr); err != nil {
		log.Fatalf("send %s: %v", args.File, err)
	}
}

func runWatchMode(args *arguments, dest *net.UDPAddr) {
	watcher, err := filetransfer.NewDirectoryWatcher(args.FileDirectory, args.QueueExisting)
	if err != nil {
		log.Fatalf("watch directory %s: %v", args.FileDirectory, err)
	}
	defer watcher.Stop()

	go watcher.Run()

	for path := range watcher.Files() {
		if err := sendOneFile(path, dest, args.StatusAddr); err != nil {
			log.Printf("[error] send %s: %v", path, err)
		}
	}
}

func sendOneFile(path string, dest *net.UDPAddr, statusAddr string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	status := filetransfer.NewTransferStatus(filepath.Base(path))
	var statusServer *filetransfer.StatusServer
	if statusAddr != "" {
		statusServer = &filetransfer.StatusServer{Addr: statusAddr, Status: status}
		statusServer.Start()
	}

	sender := &filetransfer.Sender{
		Source:   f,
		Filename: filepath.Base(path) + ".recv",
		Dest:     dest,
		Status:   status,
	}

	stats, err := sender.Run()
	status.MarkDone()
	if statusServer != nil {
		statusServer.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Printf("[stats] running time: %d ms\n", stats.RunningTime.Milliseconds())
	fmt.Printf("[stats] file size: %d bytes\n", stats.FileSize)
	fmt.Printf("[stats] total bytes sent: %d bytes\n", stats.TotalBytesSent)
	fmt.Printf("[stats] efficiency: %.2f percent\n", stats.Efficiency())

	return nil
}
