package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dougsko/rigd/pkg/client"
)

var (
	socketPath = pflag.StringP("socket", "s", "/tmp/rigd.sock", "Unix socket path")
	command    = pflag.StringP("cmd", "c", "", "Command to send (e.g. 'STATUS', 'FREQUENCY:14074000')")
)

func main() {
	pflag.Usage = showHelp
	pflag.Parse()

	if *socketPath == "" {
		fmt.Fprintf(os.Stderr, "Socket path is required\n")
		os.Exit(1)
	}

	if *command == "" {
		if pflag.NArg() == 0 {
			showHelp()
			return
		}
		*command = strings.Join(pflag.Args(), " ")
	}

	c := client.NewSocketClient(*socketPath)
	response, err := c.SendCommand(*command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", response.String())
	if !response.Success {
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("rigctl - rigd control tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command>\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	pflag.PrintDefaults()
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  STATUS                    Get rig status")
	fmt.Println("  OPEN                      Connect to the selected profile's rig")
	fmt.Println("  CLOSE                     Disconnect from the rig")
	fmt.Println("  FREQUENCY:<hz>            Set dial frequency")
	fmt.Println("  MODE:<mode> [submode]     Set mode, e.g. MODE:SSB USB")
	fmt.Println("  RAWMODE:<name>            Set rig mode by name, e.g. RAWMODE:PKTUSB")
	fmt.Println("  PTT:<0|1>                 Key or unkey the transmitter")
	fmt.Println("  KEYSPEED:<wpm>            Set CW keyer speed")
	fmt.Println("  SYNCKEYSPEED:<wpm>        Set keyer speed from an external keyer")
	fmt.Println("  MORSE:<text>              Send CW text")
	fmt.Println("  STOPMORSE                 Abort CW text")
	fmt.Println("  MODES                     List modes of the selected rig")
	fmt.Println("  RESEND                    Report the full state on the next poll")
	fmt.Println("  PING                      Test connection")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s STATUS\n", os.Args[0])
	fmt.Printf("  %s 'MODE:SSB USB'\n", os.Args[0])
	fmt.Printf("  echo 'FREQUENCY:7074000' | nc -U /tmp/rigd.sock\n")
}
