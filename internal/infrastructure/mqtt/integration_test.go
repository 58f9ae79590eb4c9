//go:build integration

package mqtt

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_AnnounceRetained(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "cloudcfg-int-announce"

	client, err := Connect(cfg, "oc-int-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.Announce(Announcement{
		InstanceID: "oc-int-1",
		LoadedAt:   time.Now().UTC(),
		Config:     map[string]any{"dbtype": "sqlite3"},
	}); err != nil {
		t.Fatalf("Announce() error = %v", err)
	}

	// A late subscriber must still see the retained announcement.
	received := make(chan []byte, 1)
	var once sync.Once
	opts := pahomqtt.NewClientOptions().AddBroker("tcp://127.0.0.1:1883").SetClientID("cloudcfg-int-reader")
	reader := pahomqtt.NewClient(opts)
	if tok := reader.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("reader connect: %v", tok.Error())
	}
	defer reader.Disconnect(100)

	reader.Subscribe(client.Topics().Config(), 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		once.Do(func() { received <- msg.Payload() })
	})

	select {
	case payload := <-received:
		var a Announcement
		if err := json.Unmarshal(payload, &a); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if a.InstanceID != "oc-int-1" || a.Config["dbtype"] != "sqlite3" {
			t.Errorf("announcement = %+v", a)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained announcement not received")
	}
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "cloudcfg-int-callback"

	client, err := Connect(cfg, "oc-int-2")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
}
