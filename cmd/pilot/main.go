// Package main provides the Pilot command-line runner. It executes
// keyword suites from YAML files or runs a one-shot link verification,
// closing every browser session on shutdown.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	appconfig "github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/driver"
	"github.com/entrhq/pilot/pkg/keywords"
	"github.com/entrhq/pilot/pkg/logging"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	SuiteFile   string
	LinksURL    string
	Browser     string
	Headless    bool
	LogAll      bool
	HeaderOnly  bool
	ShowVersion bool
}

// Suite is a YAML keyword suite: an ordered list of keyword steps.
type Suite struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one keyword invocation.
type Step struct {
	Keyword string   `yaml:"keyword"`
	Args    []string `yaml:"args"`
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("Pilot v%s\n", version)
		return
	}

	if err := run(config); err != nil {
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.ConfigFile, "config", "", "Path to configuration file (JSON)")
	flag.StringVar(&config.SuiteFile, "suite", "", "Path to keyword suite file (YAML)")
	flag.StringVar(&config.LinksURL, "links", "", "Verify all links on the given URL and exit")
	flag.StringVar(&config.Browser, "browser", "chrome", "Browser alias for one-shot runs")
	flag.BoolVar(&config.Headless, "headless", false, "Force headless browser launches")
	flag.BoolVar(&config.LogAll, "logall", false, "Log healthy links too during verification")
	flag.BoolVar(&config.HeaderOnly, "headeronly", true, "Verify links with HEAD requests only (-headeronly=false re-checks 404/405 with GET)")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Pilot - Browser Lifecycle Keyword Runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pilot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Verify every link on a page\n")
		fmt.Fprintf(os.Stderr, "  pilot -links https://example.com -logall\n\n")
		fmt.Fprintf(os.Stderr, "  # Run a keyword suite\n")
		fmt.Fprintf(os.Stderr, "  pilot -suite smoke.yaml\n\n")
	}

	flag.Parse()
	return config
}

func run(cliConfig *CLIConfig) error {
	if err := appconfig.Initialize(cliConfig.ConfigFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	browser := appconfig.GetBrowser()
	if cliConfig.Headless {
		browser.SetHeadless(true)
	}

	factory := driver.NewFactory()
	if !browser.IsGridProvider() {
		if err := factory.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize browser runtime: %w", err)
		}
		defer factory.Shutdown()
	}

	library := keywords.New(factory, browser, appconfig.GetLinkCheck())

	// Close every session on interrupt so no browsers are left behind
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down...")
		if err := library.CloseAllBrowsers(); err != nil {
			log.Printf("Shutdown cleanup failed: %v", err)
		}
		factory.Shutdown()
		os.Exit(1)
	}()

	defer func() {
		if err := library.CloseAllBrowsers(); err != nil {
			log.Printf("Cleanup failed: %v", err)
		}
	}()

	switch {
	case cliConfig.LinksURL != "":
		return verifyLinks(library, cliConfig)
	case cliConfig.SuiteFile != "":
		return runSuite(library, cliConfig.SuiteFile)
	default:
		return fmt.Errorf("nothing to do: pass -links or -suite")
	}
}

// verifyLinks opens a browser, checks every link on the page, and
// reports the result.
func verifyLinks(library *keywords.Library, cliConfig *CLIConfig) error {
	if _, err := library.OpenBrowser(cliConfig.LinksURL, cliConfig.Browser); err != nil {
		return err
	}

	if err := library.VerifyLinks(keywords.CurrentPage, cliConfig.LogAll, cliConfig.HeaderOnly); err != nil {
		return err
	}

	log.Printf("All links on %s verified", cliConfig.LinksURL)
	return nil
}

// runSuite executes a YAML keyword suite step by step, stopping at the
// first failure.
func runSuite(library *keywords.Library, path string) error {
	suite, err := loadSuite(path)
	if err != nil {
		return err
	}

	log.Printf("Running suite %q (%d steps)", suite.Name, len(suite.Steps))
	log.Printf("Run ID: %s", logging.GetRunID())

	for i, step := range suite.Steps {
		log.Printf("Step %d/%d: %s", i+1, len(suite.Steps), step.Keyword)
		if err := library.Run(step.Keyword, step.Args...); err != nil {
			return fmt.Errorf("step %d (%s) failed: %w", i+1, step.Keyword, err)
		}
	}

	log.Printf("Suite completed successfully")
	return nil
}

// loadSuite loads a keyword suite from a YAML file
func loadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	suite := &Suite{}
	if err := yaml.Unmarshal(data, suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file: %w", err)
	}
	if len(suite.Steps) == 0 {
		return nil, fmt.Errorf("suite %q has no steps", path)
	}

	return suite, nil
}
