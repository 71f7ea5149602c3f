package main

import (
	"os"
	"strings"
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/Gurux/gxsocket-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

func main() {
	if err := newApp().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gxsocket",
		Short: "Synchronous TCP and UDP sockets",
		Example: `  Run an echo peer on port 4059 for both TCP and UDP:
  $ gxsocket echo --port 4059

  Send a message and print the reply:
  $ gxsocket send --host localhost --port 4059 hello

  Same over UDP and IPv6 with full tracing:
  $ gxsocket send --protocol udp --ipv6 --host ::1 --port 4059 --trace Verbose hello`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Set the logging level [trace, debug, info, warn, error]")
	rootCmd.PersistentFlags().String("trace", "", "Socket trace level")
	rootCmd.PersistentFlags().String("lang", "", "Language of socket trace messages, $LANG by default")
	rootCmd.PersistentFlags().Bool("ipv6", false, "Use IPv6")
	rootCmd.PersistentFlags().Uint32("timeout", 0, "Connect and receive timeout in milliseconds, 0 waits forever")
	rootCmd.PersistentFlags().String("settings", "", "Socket settings as an XML fragment, flags override it")
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return processGlobalFlags(rootCmd)
	}
	rootCmd.AddCommand(
		newEchoCommand(),
		newSendCommand(),
	)
	return rootCmd
}

func processGlobalFlags(rootCmd *cobra.Command) error {
	l, _ := rootCmd.Flags().GetString("log-level")
	if l != "" {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
	}
	return nil
}

// CurrentLanguage returns the language of the environment.
func CurrentLanguage() language.Tag {
	langEnv := os.Getenv("LANG")
	if langEnv == "" {
		return language.AmericanEnglish
	}
	langEnv = strings.Split(langEnv, ".")[0]
	tag, err := language.Parse(langEnv)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// newSettings builds socket settings from the global flags.
func newSettings(cmd *cobra.Command) (*gxsocket.GXSettings, error) {
	flags := cmd.Flags()
	s := gxsocket.NewGXSettings()
	s.Language = CurrentLanguage()
	if xml, _ := flags.GetString("settings"); xml != "" {
		if err := s.SetSettings(xml); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ipv6") {
		if ipv6, _ := flags.GetBool("ipv6"); ipv6 {
			s.IPVersion = gxsocket.IPVersionIPv6
		} else {
			s.IPVersion = gxsocket.IPVersionIPv4
		}
	}
	if flags.Changed("timeout") {
		ms, _ := flags.GetUint32("timeout")
		s.Timeout = time.Duration(ms) * time.Millisecond
	}
	if t, _ := flags.GetString("trace"); t != "" {
		tl, err := gxcommon.TraceLevelParse(t)
		if err != nil {
			return nil, err
		}
		s.Trace = tl
	}
	if lang, _ := flags.GetString("lang"); lang != "" {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, err
		}
		s.Language = tag
	}
	if flags.Lookup("protocol") != nil && flags.Changed("protocol") {
		p, _ := flags.GetString("protocol")
		protocol, err := gxsocket.NetworkTypeParse(p)
		if err != nil {
			return nil, err
		}
		s.Protocol = protocol
	}
	s.OnTrace = func(_ gxsocket.GXSocket, e gxcommon.TraceEventArgs) {
		logrus.Debugf("Trace: %s", e.String())
	}
	s.OnMediaStateChange = func(m gxsocket.GXSocket, e gxcommon.MediaStateEventArgs) {
		logrus.WithField("socket", m.String()).Infof("Media state change: %s", e.State().String())
	}
	return s, nil
}
