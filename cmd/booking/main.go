package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mannat244/AstroApp/internal/httpapi"
	"github.com/mannat244/AstroApp/internal/payu"
	"github.com/mannat244/AstroApp/internal/ratelimit"
	"github.com/mannat244/AstroApp/internal/repository"
	"github.com/mannat244/AstroApp/internal/service"
	"github.com/mannat244/AstroApp/pkg/db"
	"github.com/mannat244/AstroApp/pkg/mq"
	"github.com/mannat244/AstroApp/pkg/obs"
)

type Cfg struct {
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`
	PGBookingDSN string `envconfig:"PG_BOOKING_DSN" required:"true"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`

	// RabbitMQ for publishing booking/payment events
	RabbitURL       string `envconfig:"RABBIT_URL" required:"true"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	// PayU merchant credentials and redirect targets
	PayUKey        string `envconfig:"PAYU_KEY" required:"true"`
	PayUSalt       string `envconfig:"PAYU_SALT" required:"true"`
	PayULive       bool   `envconfig:"PAYU_LIVE" default:"false"`
	PayUSuccessURL string `envconfig:"PAYU_SUCCESS_URL" required:"true"`
	PayUFailureURL string `envconfig:"PAYU_FAILURE_URL" required:"true"`

	// Abandonment expiry sweep
	ExpirySweepEvery time.Duration `envconfig:"EXPIRY_SWEEP_EVERY" default:"1m"`
	BookingTTL       time.Duration `envconfig:"BOOKING_TTL" default:"30m"`

	// Reserve attempts per requester per window
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"5"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10m"`
}

func must[T any](v T, err error) T {
	if err != nil {
		log.Fatal(err)
	}
	return v
}

func main() {
	_ = godotenv.Load()
	var cfg Cfg
	must(0, envconfig.Process("", &cfg))

	shutdownTracer := obs.InitTracer("booking-engine")
	defer func() { _ = shutdownTracer(context.Background()) }()

	gdb := db.Open(cfg.PGBookingDSN)
	repo := repository.NewBookingRepo(gdb)
	must(0, repo.Migrate())

	pub := must(mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange))
	defer pub.Close()

	checkoutURL := payu.TestCheckoutURL
	if cfg.PayULive {
		checkoutURL = payu.LiveCheckoutURL
	}
	pc := service.PayUConfig{
		MerchantKey: cfg.PayUKey,
		Salt:        cfg.PayUSalt,
		CheckoutURL: checkoutURL,
		SuccessURL:  cfg.PayUSuccessURL,
		FailureURL:  cfg.PayUFailureURL,
	}

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow)
	bookings := service.NewBookingSvc(repo, limiter, pub, pc)
	verifier := payu.NewClient(cfg.PayUKey, cfg.PayUSalt, !cfg.PayULive, 10*time.Second)
	confirm := service.NewConfirmSvc(repo, verifier, cfg.PayUKey, cfg.PayUSalt, pub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bookings.RunExpiry(ctx, cfg.ExpirySweepEvery, cfg.BookingTTL)

	h := httpapi.NewHandler(bookings, confirm, []byte(cfg.JWTSecret), httpapi.DefaultLiveOptions())
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(h)}

	go func() {
		log.Println("[booking] HTTP listening on", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[booking] serve: %v", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("[booking] shutdown: %v", err)
	}
	log.Println("[booking] stopped")
}
