package nano

import "testing"

func TestClientNilCollaboratorsAreSafe(t *testing.T) {
	client := NewClient("127.0.0.1", 5000, 5001, Collaborators{})

	// None of these should panic even though no collaborator is set and
	// no channel has ever been created.
	client.SetVideoFormat(VideoFormat{})
	client.SetAudioFormat(AudioFormat{})
	client.RenderVideo([]byte{1, 2, 3})
	client.RenderAudio([]byte{1, 2, 3})
	client.Pump()

	if err := client.ControllerAdded(0); !IsProtocolError(err, ErrUnknownChannel) {
		t.Fatalf("ControllerAdded with no Control channel: got %v, want ErrUnknownChannel", err)
	}
	if err := client.ControllerRemoved(0); !IsProtocolError(err, ErrUnknownChannel) {
		t.Fatalf("ControllerRemoved with no Control channel: got %v, want ErrUnknownChannel", err)
	}
	if err := client.ChangeVideoQuality(VideoQualityHigh); !IsProtocolError(err, ErrUnknownChannel) {
		t.Fatalf("ChangeVideoQuality with no Control channel: got %v, want ErrUnknownChannel", err)
	}
	if err := client.SendChatAudio([]byte{1}); !IsProtocolError(err, ErrUnknownChannel) {
		t.Fatalf("SendChatAudio with no ChatAudio channel: got %v, want ErrUnknownChannel", err)
	}
}

func TestClientReportErrorInvokesCallbackAndCloses(t *testing.T) {
	var gotMsg string
	client := NewClient("127.0.0.1", 5000, 5001, Collaborators{
		OnGamestreamError: func(msg string) { gotMsg = msg },
	})
	client.reportError("session lost")
	if gotMsg != "session lost" {
		t.Fatalf("OnGamestreamError got %q, want %q", gotMsg, "session lost")
	}
}

func TestClientRegistryResolvesRegisteredControlChannel(t *testing.T) {
	client := NewClient("127.0.0.1", 5000, 5001, Collaborators{})
	client.s.registry.create(1024, ChannelClassControl, 0)

	// ControllerAdded would write through the nil control transport and
	// panic, so this checks only the registry lookup that controller
	// events rely on, without touching the network.
	ch, ok := client.s.registry.getByClass(ChannelClassControl)
	if !ok || ch.ID != 1024 {
		t.Fatalf("expected Control channel 1024 to be registered")
	}
}
