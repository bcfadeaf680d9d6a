// nanoclient is a thin demo entrypoint: it wires smartglass.Bootstrapper
// to nano.Client with no-op renderer/input collaborators so the protocol
// core can be exercised end to end against a real console. A real
// renderer, input device and UI are out of scope for the core itself.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openxbox/nano-streamclient"
	"github.com/openxbox/nano-streamclient/smartglass"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "nanoclient",
		Short: "Connect to an Xbox One console's NANO gamestream and log what it sends",
		RunE:  run,
	}

	if err := root.Execute(); err != nil {
		nano.LogError(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	address := os.Getenv("NANO_ADDRESS")
	if address == "" {
		return fmt.Errorf("NANO_ADDRESS must be set to the console's IP address")
	}

	broadcastURL := os.Getenv("NANO_BROADCAST_URL")
	if broadcastURL == "" {
		return fmt.Errorf("NANO_BROADCAST_URL must be set to the console's SmartGlass broadcast websocket endpoint")
	}

	bootstrapper, err := smartglass.NewBootstrapper(address, broadcastURL)
	if err != nil {
		return err
	}
	bootstrapper.OnError = func(code smartglass.GameStreamError) {
		nano.LogWarning(fmt.Sprintf("gamestream error from console: %d", code))
	}
	bootstrapper.Start()
	defer bootstrapper.Stop()

	if err := bootstrapper.StartGameStream(smartglass.DefaultStreamConfig); err != nil {
		return err
	}

	nano.LogInfo("waiting for the console to report a stream session...")

	var params smartglass.SessionParams
	select {
	case params = <-bootstrapper.Ready:
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timed out waiting for a gamestream session")
	}

	client := nano.NewClient(params.Address, params.TCPPort, params.UDPPort, nano.Collaborators{
		Video:       stubVideoRenderer{},
		Audio:       stubAudioRenderer{},
		InputPoller: noInput{},
		OnGamestreamError: func(msg string) {
			nano.LogWarning("session error: " + msg)
		},
	})

	nano.LogInfo("opening session to " + address + ":" + strconv.Itoa(params.TCPPort) + "/" + strconv.Itoa(params.UDPPort))
	if err := client.Open(); err != nil {
		return err
	}
	defer client.Close()

	nano.LogInfo("connected, session id " + params.SessionID)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			client.Pump()
		case <-sig:
			_ = bootstrapper.StopGameStream()
			return nil
		}
	}
}

type stubVideoRenderer struct{}

func (stubVideoRenderer) SetVideoFormat(format nano.VideoFormat) {
	nano.LogInfo(fmt.Sprintf("video format: %dx%d @%d", format.Width, format.Height, format.FPS))
}

func (stubVideoRenderer) RenderVideo(frame []byte) {
	nano.LogDebug(fmt.Sprintf("video frame: %d bytes", len(frame)))
}

type stubAudioRenderer struct{}

func (stubAudioRenderer) SetAudioFormat(format nano.AudioFormat) {
	nano.LogInfo(fmt.Sprintf("audio format: %dch @%dHz", format.Channels, format.SampleRate))
}

func (stubAudioRenderer) RenderAudio(frame []byte) {
	nano.LogDebug(fmt.Sprintf("audio frame: %d bytes", len(frame)))
}

// noInput never has a real controller to poll; a real input-device
// adapter would call Client.SendInput from here.
type noInput struct{}

func (noInput) PollInput(c *nano.Client) {}
