package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mannat244/AstroApp/internal/notify"
	"github.com/mannat244/AstroApp/pkg/mq"
	"github.com/mannat244/AstroApp/pkg/obs"
)

type Cfg struct {
	RabbitURL       string   `envconfig:"RABBIT_URL" required:"true"`
	BookingExchange string   `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`
	Queue           string   `envconfig:"NOTIFY_QUEUE" default:"notification.q"`
	Bindings        []string `envconfig:"NOTIFY_BINDINGS" default:"booking.*,payment.*"`
	Prefetch        int      `envconfig:"NOTIFY_PREFETCH" default:"16"`
	DLX             string   `envconfig:"NOTIFY_DLX" default:"notification.dlx"`
	DLXQueue        string   `envconfig:"NOTIFY_DLQ" default:"notification.q.dlq"`
}

func main() {
	_ = godotenv.Load()
	var cfg Cfg
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal(err)
	}

	shutdownTracer := obs.InitTracer("notify-worker")
	defer func() { _ = shutdownTracer(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cons *mq.Consumer
	for {
		var err error
		cons, err = mq.NewConsumer(mq.ConsumerConfig{
			URL:      cfg.RabbitURL,
			Exchange: cfg.BookingExchange,
			Queue:    cfg.Queue,
			Bindings: cfg.Bindings,
			Prefetch: cfg.Prefetch,
			DLX:      cfg.DLX,
			DLXQueue: cfg.DLXQueue,
		})
		if err == nil {
			break
		}
		log.Printf("[notify] connect failed: %v; retry in 2s", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
	defer cons.Close()

	w := notify.NewWorker(cons, notify.NewConsole(), "notify-worker")
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Printf("[notify] run: %v", err)
		}
	}()

	log.Printf("[notify] started. queue=%s exchange=%s bindings=%v", cfg.Queue, cfg.BookingExchange, cfg.Bindings)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	time.Sleep(200 * time.Millisecond)
	log.Println("[notify] stopped")
}
