package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweeney/ir-monitor/internal/gpio"
	"github.com/sweeney/ir-monitor/internal/network"
	"github.com/sweeney/ir-monitor/internal/notify"
)

const envPrefix = "IRMON"

var rootCmd = &cobra.Command{
	Use:   "ir-monitor",
	Short: "IR break-beam presence monitor",
	Long: `Debounces an active-low IR break-beam sensor and posts a rate-limited
webhook alert on each confirmed presence. Keeps Wi-Fi associated and
reboots the board after a day of uptime.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(loadOptions())
	},
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// flag name -> viper key. Keys use underscores so IRMON_<KEY> env vars and
// <KEY> entries in .env both resolve.
var flagKeys = map[string]string{
	"credentials":  "credentials",
	"chip":         "chip",
	"pin":          "pin",
	"webhook-url":  "webhook_url",
	"message":      "message",
	"interface":    "interface",
	"broker":       "broker",
	"http":         "http_addr",
	"heartbeat":    "heartbeat",
	"print-state":  "print_state",
	"time-servers": "time_servers",
}

func init() {
	cobra.OnInitialize(initConfig)

	f := rootCmd.Flags()
	f.String("credentials", network.DefaultCredentialsPath, "Wi-Fi credentials file (SSID,<name> / PASS,<passphrase>)")
	f.String("chip", gpio.DefaultChip, "GPIO chip of the sensor line")
	f.Int("pin", gpio.DefaultPin, "BCM line number of the sensor")
	f.String("webhook-url", "", "Webhook URL that receives presence alerts")
	f.String("message", notify.DefaultMessage, "Alert message content")
	f.String("interface", network.DefaultInterface, "Wireless interface to supervise")
	f.String("broker", "", "MQTT broker for telemetry (empty disables)")
	f.String("http", ":80", "HTTP status address (empty disables)")
	f.String("heartbeat", "@every 15m", "Heartbeat cron schedule (empty disables)")
	f.Bool("print-state", false, "Print the sensor state and exit")
	f.Bool("time-servers", true, "Query NTP servers after joining Wi-Fi")

	for name, key := range flagKeys {
		cobra.CheckErr(viper.BindPFlag(key, f.Lookup(name)))
	}
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.ReadInConfig()
}

type options struct {
	Credentials string
	Chip        string
	Pin         int
	WebhookURL  string
	Message     string
	Interface   string
	Broker      string
	HTTPAddr    string
	Heartbeat   string
	PrintState  bool
	TimeServers bool
}

func loadOptions() options {
	return options{
		Credentials: viper.GetString("credentials"),
		Chip:        viper.GetString("chip"),
		Pin:         viper.GetInt("pin"),
		WebhookURL:  viper.GetString("webhook_url"),
		Message:     viper.GetString("message"),
		Interface:   viper.GetString("interface"),
		Broker:      viper.GetString("broker"),
		HTTPAddr:    viper.GetString("http_addr"),
		Heartbeat:   viper.GetString("heartbeat"),
		PrintState:  viper.GetBool("print_state"),
		TimeServers: viper.GetBool("time_servers"),
	}
}
