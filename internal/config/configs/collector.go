package configs

import "time"

// Collector tunes the redemption orchestrator and the scheduled sweep.
type Collector struct {
	// MaxBatches bounds the number of concurrent worker batches per run.
	MaxBatches int `env:"MAX_BATCHES" envDefault:"10"`
	// BatchTimeout bounds how long the run waits for each batch to join.
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT" envDefault:"5m"`
	// WatchMin and WatchMax bound the simulated watch-time sleep.
	WatchMin time.Duration `env:"WATCH_MIN" envDefault:"1s"`
	WatchMax time.Duration `env:"WATCH_MAX" envDefault:"2s"`
	// PurchasePause is the politeness delay between package redemptions.
	PurchasePause time.Duration `env:"PURCHASE_PAUSE" envDefault:"1500ms"`
	// Cooldown throttles repeated collect triggers per user.
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"5s"`
	// VoicePackageID and DataPackageID are the fixed catalog ids bought by
	// the auto-purchase planner; DataUnits is how many data packages are
	// queued after the single voice package.
	VoicePackageID string `env:"VOICE_PACKAGE_ID" envDefault:"12"`
	DataPackageID  string `env:"DATA_PACKAGE_ID" envDefault:"7"`
	DataUnits      int    `env:"DATA_UNITS" envDefault:"4"`
	// AutoCollectAt is the local daily time (HH:MM) of the automatic sweep.
	AutoCollectAt string `env:"AUTO_COLLECT_AT" envDefault:"05:30"`
	// Timezone resolves AutoCollectAt.
	Timezone string `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`
}
