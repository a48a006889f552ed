package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agrogpt/advisor/internal/advisory"
	"github.com/agrogpt/advisor/internal/weather"
)

// Subscription registers a phone number for forecast broadcasts
type Subscription struct {
	Phone    string `json:"phone_number"`
	Region   string `json:"region"`
	Language string `json:"language"`
}

// Broadcaster pushes a localized forecast summary to subscribers on a
// cron schedule.
type Broadcaster struct {
	svc *advisory.Service
	gw  Gateway

	mu   sync.RWMutex
	subs []Subscription

	cron *cron.Cron
}

// NewBroadcaster creates a broadcaster over the advisory service and
// an SMS gateway.
func NewBroadcaster(svc *advisory.Service, gw Gateway) *Broadcaster {
	return &Broadcaster{svc: svc, gw: gw}
}

// LoadSubscriptions reads the subscriber list from a JSON file. A
// missing file means no subscribers, not an error.
func (b *Broadcaster) LoadSubscriptions(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read subscriptions %s: %w", path, err)
	}

	var subs []Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return fmt.Errorf("parse subscriptions %s: %w", path, err)
	}

	b.mu.Lock()
	b.subs = subs
	b.mu.Unlock()
	log.Printf("Loaded %d broadcast subscriptions", len(subs))
	return nil
}

// Subscribe adds a subscriber
func (b *Broadcaster) Subscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

// Start schedules broadcasts with the given cron expression
func (b *Broadcaster) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, b.Broadcast); err != nil {
		return fmt.Errorf("schedule broadcast %q: %w", spec, err)
	}
	c.Start()
	b.cron = c
	log.Printf("Advisory broadcast scheduled: %s", spec)
	return nil
}

// Stop cancels the schedule and waits for a running broadcast
func (b *Broadcaster) Stop() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}
}

// Broadcast sends today's forecast to every subscriber, grouped by
// region and language so each group shares one rendered message.
func (b *Broadcaster) Broadcast() {
	b.mu.RLock()
	subs := append([]Subscription(nil), b.subs...)
	b.mu.RUnlock()

	type group struct{ region, language string }
	groups := make(map[group][]string)
	for _, sub := range subs {
		key := group{region: sub.Region, language: sub.Language}
		groups[key] = append(groups[key], sub.Phone)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for key, phones := range groups {
		resp := b.svc.WeatherForecast(advisory.WeatherQuery{Region: key.region, Language: key.language})
		if resp.Status != advisory.StatusSuccess || len(resp.Forecast) == 0 {
			log.Printf("Broadcast skipped for %s/%s: %s", key.region, key.language, resp.Message)
			continue
		}

		message := renderSummary(resp.Forecast[0])
		report := SendBulk(ctx, b.gw, phones, message)
		log.Printf("Broadcast %s/%s: sent %d of %d", key.region, key.language, report.TotalSent, len(phones))
	}
}

// renderSummary formats one forecast day as an SMS-sized line
func renderSummary(day weather.ForecastDay) string {
	return fmt.Sprintf("%s %s: %.1fC, rain %.1fmm, humidity %.0f%%. %s",
		day.Region, day.Date, day.Temperature, day.Rainfall, day.Humidity, day.Description)
}
