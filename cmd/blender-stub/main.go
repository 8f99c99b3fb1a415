// blender-stub runs a standalone scene emulator speaking the Blender
// listener wire protocol over TCP. It lets the server and clients be
// exercised end to end on machines without Blender installed.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/blenderstub"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9876", "address to listen on")
	flag.Parse()

	srv, err := blenderstub.Listen(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blender-stub: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("blender-stub listening on %s\n", srv.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	_ = srv.Close()
}
