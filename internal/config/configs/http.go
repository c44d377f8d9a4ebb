package configs

// HTTP defines configuration for the operational HTTP server. The Port
// specifies which port the server will bind to. WebhookSecret is the shared
// secret the payment gateway sends on its confirmation callbacks.
type HTTP struct {
	// Port is the TCP port the HTTP server will listen on. Defaults to 8080.
	Port uint16 `env:"PORT" envDefault:"8080"`
	// WebhookSecret must match the x-webhook-secret header on payment
	// callbacks. An empty value disables the check.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}
