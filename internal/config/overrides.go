package config

import "time"

// Overrides carries command line values. Zero values leave the file setting
// in place; boolean switches can only turn a feature off.
type Overrides struct {
	Input        string
	Output       string
	Port         int
	MaxPort      int
	Debounce     *time.Duration
	PollInterval *time.Duration

	NoLiveReload bool
	NoKeys       bool

	MetricsAddr string
	HistoryDB   string
	NATSURL     string
	NATSSubject string
}

// Apply merges o into c.
func (c *Config) Apply(o Overrides) {
	setString(&c.Input, o.Input)
	setString(&c.Output, o.Output)
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.MaxPort != 0 {
		c.MaxPort = o.MaxPort
	}
	if o.Debounce != nil {
		c.Debounce = *o.Debounce
	}
	if o.PollInterval != nil {
		c.PollInterval = *o.PollInterval
	}
	c.DisableLiveReload = c.DisableLiveReload || o.NoLiveReload
	c.DisableKeys = c.DisableKeys || o.NoKeys
	setString(&c.MetricsAddr, o.MetricsAddr)
	setString(&c.HistoryDB, o.HistoryDB)
	setString(&c.NATS.URL, o.NATSURL)
	setString(&c.NATS.Subject, o.NATSSubject)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
