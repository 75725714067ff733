package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/chainreactors/logs"
	"github.com/chainreactors/utils/iutils"
	"github.com/fatih/color"
	"github.com/rix4uni/favinfo"
	"github.com/rix4uni/favinfo/banner"
	"github.com/rix4uni/favinfo/common"
	"github.com/rix4uni/favinfo/fetch"
	"github.com/rix4uni/favinfo/query"
	"github.com/rix4uni/favinfo/signature"
)

var matchColor = color.New(color.FgGreen)

var sourceNames = map[string]string{
	fetch.SourceScraped:  "Scraped",
	fetch.SourceFallback: "Added",
	fetch.SourceDirect:   "Direct",
	fetch.SourceData:     "Inline",
}

func main() {
	var (
		timeout     = flag.Duration("timeout", fetch.DefaultTimeout, "Set the HTTP request timeout duration per target")
		showVersion = flag.Bool("version", false, "Print the version of the tool and exit.")
		silent      = flag.Bool("silent", false, "Silent mode.")
		source      = flag.Bool("source", false, "Enable source output for where the url coming from scraped or added /favicon.ico")
		userAgent   = flag.String("H", fetch.DefaultUserAgent, "Set the User-Agent header for HTTP requests")
		threads     = flag.Int("t", favinfo.DefaultThreads, "Number of concurrent targets")
		rate        = flag.Int("rate", 0, "Max fetches per second, 0 for unlimited")
		sigSource   = flag.String("fingerprint", "", "Signature source, csv/json/yaml file or URL, embedded table when empty")
		insecure    = flag.Bool("insecure", true, "Skip TLS certificate verification")
		tech        = flag.Bool("tech", false, "Detect page technologies while fetching")
		queryFor    = flag.String("query", "", "Print pivot queries per result, comma separated: shodan,fofa,zoomeye,censys or all")
		jsonOut     = flag.Bool("json", false, "Emit results as JSON lines")
		debug       = flag.Bool("debug", false, "Debug logging")
	)
	flag.Parse()

	if *showVersion {
		banner.PrintBanner()
		banner.PrintVersion()
		return
	}
	if !*silent {
		banner.PrintBanner()
	} else {
		logs.Log.SetQuiet(true)
	}
	if *debug {
		logs.Log.SetLevel(logs.Debug)
	}

	engine, err := favinfo.NewEngine()
	if err != nil {
		logs.Log.Error(err.Error())
		os.Exit(1)
	}
	if *sigSource != "" {
		table, err := signature.Load(*sigSource)
		if err != nil {
			logs.Log.Error(err.Error())
			os.Exit(1)
		}
		engine.Table = table
	}

	fetcher := fetch.NewHTTPFetcher(fetch.NewClient(0, *insecure))
	fetcher.UserAgent = *userAgent
	if *tech {
		if err := fetcher.EnableTechDetect(); err != nil {
			logs.Log.Warn(err.Error())
		}
	}
	engine.Fetcher = fetcher
	engine.Threads = *threads
	engine.RateLimit = *rate
	engine.Timeout = *timeout

	targets := readTargets()
	if len(targets) == 0 {
		logs.Log.Error("no targets, pipe urls on stdin or pass them as arguments")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := parseServices(*queryFor)

	var mu sync.Mutex
	engine.OnResult = func(result *common.MatchResult) {
		mu.Lock()
		defer mu.Unlock()
		printResult(result, *jsonOut, *source, services)
	}

	engine.MatchAll(ctx, targets)
}

func readTargets() []string {
	targets := flag.Args()
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				targets = append(targets, line)
			}
		}
	}
	return iutils.StringsUnique(targets)
}

// parseServices resolves the -query flag to concrete service names,
// warning about unknown ones once instead of per result.
func parseServices(raw string) []string {
	if raw == "" {
		return nil
	}
	var services []string
	for _, service := range strings.Split(raw, ",") {
		service = strings.ToLower(strings.TrimSpace(service))
		if service == "" {
			continue
		}
		if service == "all" {
			return query.Services()
		}
		if _, ok := query.Templates[service]; !ok {
			logs.Log.Warnf("unknown query service %q, known: %s", service, strings.Join(query.Services(), ", "))
			continue
		}
		services = append(services, service)
	}
	return services
}

func printResult(result *common.MatchResult, jsonOut, source bool, services []string) {
	if jsonOut {
		line, err := json.Marshal(result)
		if err != nil {
			logs.Log.Error(err.Error())
			return
		}
		fmt.Println(string(line))
		return
	}

	if result.Failed() {
		if result.Err.Kind == common.KindCancelled {
			logs.Log.Debugf("%s %s", result.Target, result.Err.Error())
		} else {
			logs.Log.Errorf("%s %s", result.Target, result.Err.Error())
		}
		return
	}

	if source {
		if name, ok := sourceNames[result.Source]; ok {
			fmt.Printf("[%s]: %s\n", name, result.FaviconURL)
		}
	}

	labels := strings.Join(result.Labels, ", ")
	if result.Matched {
		labels = matchColor.Sprint(labels)
	}
	line := fmt.Sprintf("%s [%s] [%s] [%s] [%s]",
		result.FaviconURL, result.Fingerprint, result.MD5, result.SHA256, labels)
	if len(result.TechHints) > 0 {
		line += " [" + strings.Join(result.TechHints, ", ") + "]"
	}
	fmt.Println(line)

	for _, service := range services {
		if q := query.Format(service, result.Fingerprint); q != "" {
			fmt.Printf("  %s: %s\n", service, q)
		}
	}
}
