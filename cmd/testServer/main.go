package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/valyala/fasthttp"
)

func StatsFunc(end <-chan bool) {
	// rolling average
	lastRequest := time.Now()
	lastRequestCount := requestCount.get()
	for {
		select {
		case <-end:
			fmt.Println("\nTerminating.")
			return
		default:
			timeDiff := time.Since(lastRequest).Seconds()
			curRequestCount := requestCount.get()
			requestCountDiff := curRequestCount - lastRequestCount
			rps := float64(requestCountDiff) / timeDiff

			fmt.Printf("Total Requests: %d. Requests since last checkin: %d. RPS: %f\t\t\t\t\r", curRequestCount, requestCountDiff, rps)
			lastRequest = time.Now()
			lastRequestCount = curRequestCount
			time.Sleep(1 * time.Second)
		}
	}
}

func main() {
	var portRange string
	flag.StringVar(&portRange, "p", "14000-14001", "Range of ports to start servers on")
	flag.Parse()

	flagParts := strings.Split(portRange, "-")
	if len(flagParts) != 2 {
		log.Fatal().Msg("Invalid portRange. Format should be <int>-<int>")
	}

	startPort, err := strconv.Atoi(flagParts[0])
	if err != nil {
		log.Fatal().Msgf("Unable to parse port: %s", err)
	}

	endPort, err := strconv.Atoi(flagParts[1])
	if err != nil {
		log.Fatal().Msgf("Unable to parse port: %s", err)
	}

	r := newRouter()

	var wg sync.WaitGroup
	for i := startPort; i < endPort; i++ {
		wg.Add(1)
		go func(port int) {
			Host := fmt.Sprintf(":%d", port)
			log.Info().Str("host", Host).Msg("starting server")
			log.Fatal().Err(fasthttp.ListenAndServe(Host, r.Handler)).Msg("failed to start server")
			wg.Done()
		}(i)
	}
	statsFunc := make(chan bool)

	go StatsFunc(statsFunc)
	wg.Wait()

	statsFunc <- true
	close(statsFunc)
}
