package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	"Epoch/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements MarketStream over the Polygon stocks websocket,
// consuming minute aggregates (the AM channel).
type Stream struct {
	apiKey         string
	websocketURL   string
	tickers        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
	log       *logger.Logger
}

func NewStream(apiKey, websocketURL string, tickers []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		tickers:        tickers,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

type wsAuth struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// Connect dials the socket and authenticates.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("polygon connect: %w", err)
	}
	if err := conn.WriteJSON(wsAuth{Action: "auth", Params: s.apiKey}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("polygon auth: %w", err)
	}
	s.conn = conn
	s.connected = true
	s.log.Info("polygon connected")
	return nil
}

// Subscribe subscribes to minute aggregates for the configured tickers.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("polygon not connected")
	}
	for _, t := range s.tickers {
		msg := wsAuth{Action: "subscribe", Params: "AM." + t}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
		s.log.Info("polygon subscribed", logger.String("ticker", t))
	}
	return nil
}

type wsAggregate struct {
	Event  string  `json:"ev"`
	Ticker string  `json:"sym"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
	Start  int64   `json:"s"` // ms
}

// Read streams minute bars and errors until ctx is done or the
// connection drops.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Bar, <-chan error) {
	bars := make(chan *models.Bar, 1024)
	errs := make(chan error, 1)

	// keepalive loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(bars)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("polygon conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("polygon read: %w", err)
					return
				}
				var frames []wsAggregate
				if err := json.Unmarshal(b, &frames); err != nil {
					// status and auth frames are ignored
					continue
				}
				for _, f := range frames {
					if f.Event != "AM" {
						continue
					}
					bar := &models.Bar{
						Bucket: time.UnixMilli(f.Start).UTC(),
						Ticker: f.Ticker,
						Open:   f.Open,
						High:   f.High,
						Low:    f.Low,
						Close:  f.Close,
						Volume: f.Volume,
					}
					select {
					case bars <- bar:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return bars, errs
}

// Reconnect closes and re-establishes the subscription.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Stream) IsConnected() bool { return s.connected }
