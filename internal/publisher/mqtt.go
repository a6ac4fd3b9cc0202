package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/ecowatts/internal/config"
	"github.com/jgoulah/ecowatts/internal/forecast"
)

// Publisher handles publishing forecasts to Home Assistant
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
	httpClient  *http.Client
	runID       string
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig) (*Publisher, error) {
	if !mqttCfg.Enabled && !haCfg.Enabled {
		return nil, fmt.Errorf("neither Home Assistant nor MQTT publishing is enabled in config")
	}

	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
		}
	}

	var client mqtt.Client
	var topicPrefix string

	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		// Set default topic prefix if not specified
		topicPrefix = mqttCfg.TopicPrefix
		if topicPrefix == "" {
			topicPrefix = "ecowatts"
		}
		clientID := mqttCfg.ClientID
		if clientID == "" {
			clientID = "ecowatts"
		}

		// Configure MQTT client options
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID(clientID)
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		// Create and connect client
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return newPublisher(client, topicPrefix, haCfg), nil
}

func newPublisher(client mqtt.Client, topicPrefix string, haCfg config.HAConfig) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		haConfig:    haCfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		runID:       uuid.NewString(),
	}
}

// RunID identifies the forecast run; it is attached to every published point
func (p *Publisher) RunID() string {
	return p.runID
}

// HAPayload matches the Home Assistant backfill service call data
type HAPayload struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
}

// MQTTPayload is the retained message published for each forecast day
type MQTTPayload struct {
	RunID     string  `json:"run_id"`
	Date      string  `json:"date"`
	Predicted float64 `json:"predicted_kwh"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// PublishForecast sends every forecast point to the enabled targets and returns the
// number of points delivered. Delivery stops at the first failure.
func (p *Publisher) PublishForecast(ctx context.Context, res *forecast.Result) (int, error) {
	for i, point := range res.Points {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if p.haConfig.Enabled {
			if err := p.publishHA(ctx, point); err != nil {
				return i, fmt.Errorf("publishing %s to Home Assistant: %w", point.Date.Format("2006-01-02"), err)
			}
		}
		if p.client != nil {
			if err := p.publishMQTT(point, res); err != nil {
				return i, fmt.Errorf("publishing %s to MQTT: %w", point.Date.Format("2006-01-02"), err)
			}
		}
	}
	return len(res.Points), nil
}

// publishHA sends one forecast point to Home Assistant via HTTP API
func (p *Publisher) publishHA(ctx context.Context, point forecast.Point) error {
	// Build the full API URL (AppDaemon API endpoint)
	apiURL := fmt.Sprintf("%s/api/appdaemon/backfill_state", p.haConfig.URL)

	timestamp := point.Date.Format(time.RFC3339)
	payload := HAPayload{
		EntityID:    p.haConfig.EntityID,
		State:       fmt.Sprintf("%.2f", point.Predicted),
		LastChanged: timestamp,
		LastUpdated: timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ecowatts-Run", p.runID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read error response body for debugging
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// publishMQTT publishes one forecast point as a retained message
func (p *Publisher) publishMQTT(point forecast.Point, res *forecast.Result) error {
	date := point.Date.Format("2006-01-02")
	body, err := json.Marshal(MQTTPayload{
		RunID:     p.runID,
		Date:      date,
		Predicted: point.Predicted,
		Slope:     res.Slope,
		Intercept: res.Intercept,
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	topic := fmt.Sprintf("%s/forecast/%s", p.topicPrefix, date)
	token := p.client.Publish(topic, 1, true, body)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	return token.Error()
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
