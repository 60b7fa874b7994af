package missioncontrol

import (
	"fmt"
	"os"

	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

// InitializeMQTTClient creates the ingress client. An empty client id is derived from the hostname.
func InitializeMQTTClient(opts *options.MqttOptions) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("missioncontrol-%s", hostname)
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return client, nil
}
