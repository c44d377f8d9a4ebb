package configs

import "time"

// Upstream tunes the shared outbound transport of the carrier adapters.
// Network failures are retried RetryAttempts times with a fixed RetryDelay;
// non-2xx responses are never retried.
type Upstream struct {
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"20s"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"1"`
	RetryDelay    time.Duration `env:"RETRY_DELAY" envDefault:"5s"`
	UserAgent     string        `env:"USER_AGENT" envDefault:"okhttp/4.11.0"`
}

// Prezao configures the web-channel rewards program. The zone list is the
// fixed set of campaign zones queried on every discovery run.
type Prezao struct {
	BaseURL            string   `env:"BASE_URL" envDefault:"https://api.prezaofree.com.br/39dd54c0-9ea1-4708-a9c5-5120810b3b72"`
	AccessToken        string   `env:"ACCESS_TOKEN"`
	ArtemisChannelUUID string   `env:"ARTEMIS_CHANNEL_UUID"`
	AppVersion         string   `env:"APP_VERSION" envDefault:"3.0.11"`
	Channel            string   `env:"CHANNEL" envDefault:"WEB"`
	Zones              []string `env:"ZONES" envSeparator:"," envDefault:"2b25a088-84ea-11ef-9082-0e639a16be05,ce46818d-e31a-11ef-bb8e-0680334bb059,f9077545-165c-4184-825a-a57459c131dc,dcc45968-df87-403b-8c75-a8c021ec4c8c"`
}

// Pontos configures the first android-channel program. InitialToken is the
// anonymous bootstrap token required by the activate/validate endpoints.
type Pontos struct {
	BaseURL            string   `env:"BASE_URL" envDefault:"https://api.appvivopontos.com.br"`
	InitialToken       string   `env:"INITIAL_TOKEN"`
	AccessToken        string   `env:"ACCESS_TOKEN"`
	ArtemisChannelUUID string   `env:"ARTEMIS_CHANNEL_UUID"`
	AppVersion         string   `env:"APP_VERSION" envDefault:"3.1.02"`
	Zones              []string `env:"ZONES" envSeparator:"," envDefault:"99f9c90a-b13e-419a-b53d-f47f6f2dea35,dbf70686-e31a-11ef-bb8e-0680334bb059"`
}

// Fun configures the second android-channel program, which exposes a single
// campaign zone and requires a campaign-closing tracking event.
type Fun struct {
	BaseURL            string `env:"BASE_URL" envDefault:"https://api.timfun.com.br"`
	InitialToken       string `env:"INITIAL_TOKEN"`
	AccessToken        string `env:"ACCESS_TOKEN"`
	ArtemisChannelUUID string `env:"ARTEMIS_CHANNEL_UUID" envDefault:"timfun-ae4e-4d0e-ad87-f398af9d38d2"`
	AppVersion         string `env:"APP_VERSION" envDefault:"3.1.04"`
	Zone               string `env:"ZONE" envDefault:"bbdef37d-f5c4-4b19-9cfb-ed6e8f43fa2f"`
}

// Carriers aggregates the per-operator upstream settings.
type Carriers struct {
	Upstream Upstream `envPrefix:"UPSTREAM_"`
	Prezao   Prezao   `envPrefix:"PREZAO_"`
	Pontos   Pontos   `envPrefix:"PONTOS_"`
	Fun      Fun      `envPrefix:"FUN_"`
}
