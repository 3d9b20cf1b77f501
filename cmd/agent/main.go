package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"llm-trading-agent/internal/interfaces"
	"llm-trading-agent/internal/logger"
	"llm-trading-agent/internal/trace"
	"llm-trading-agent/internal/tradelog"
	"llm-trading-agent/internal/types"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	prompt := flag.String("prompt", "", "Trading instruction prompt")
	symbol := flag.String("symbol", "BTC", "Cryptocurrency symbol to trade")
	dryRun := flag.Bool("dry-run", true, "Run without executing trades on the venue")
	amount := flag.Float64("amount", 100.0, "Dollar amount available for trading")
	interactive := flag.Bool("interactive", false, "Prompt for run parameters on stdin")
	debug := flag.Bool("debug", false, "Enable debug logging")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	must(initializeSystem(*debug))
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)
	compressOldLogs(ctx)

	exch := initializeExchange(ctx, cfg)
	catalog, err := initializeCatalog(ctx, cfg, exch)
	must(err)
	model := initializeModel(ctx, cfg)
	runner, err := initializeRunner(cfg, catalog, model)
	must(err)

	if *interactive {
		return interactiveLoop(ctx, runner, *dryRun, *debug)
	}

	if *prompt == "" {
		fmt.Println("Error: No prompt provided. Use --prompt or --interactive.")
		return 1
	}

	req := types.RunRequest{
		Prompt: *prompt,
		Symbol: strings.ToUpper(strings.TrimSpace(*symbol)),
		DryRun: *dryRun,
		Amount: *amount,
	}
	return runOnce(ctx, runner, req, *debug)
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
	_ = logger.Shutdown(ctx)
}

func runOnce(ctx context.Context, runner interfaces.Runner, req types.RunRequest, debug bool) int {
	warnAmount(req.Amount)

	result := runner.Run(ctx, req)
	displayResult(result, debug)
	recordRun(ctx, result)

	if _, failed := result["error"]; failed {
		return 1
	}
	return 0
}

func interactiveLoop(ctx context.Context, runner interfaces.Runner, defaultDryRun, debug bool) int {
	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		req, ok := readRunRequest(scanner, defaultDryRun)
		if !ok {
			break
		}
		runOnce(ctx, runner, req, debug)
	}
	if p, err := tradelog.SummarizeToday(); err == nil && p != "" {
		fmt.Println("Session summary written:", p)
	}
	return 0
}

// readRunRequest collects one run's parameters from stdin. Returns false on
// EOF or an empty prompt.
func readRunRequest(scanner *bufio.Scanner, defaultDryRun bool) (types.RunRequest, bool) {
	fmt.Println("\n===== LLM Trading Agent =====")
	fmt.Println("Enter your trading instruction (e.g., 'trade using sentiment'), empty to quit:")
	prompt, ok := readLine(scanner)
	if !ok || prompt == "" {
		return types.RunRequest{}, false
	}

	fmt.Println("\nEnter cryptocurrency symbol (default: BTC):")
	symbol, _ := readLine(scanner)
	if symbol == "" {
		symbol = "BTC"
	}

	fmt.Println("\nEnter dollar amount available for trading (default: 100.0):")
	amountInput, _ := readLine(scanner)
	amount := 100.0
	if amountInput != "" {
		if v, err := strconv.ParseFloat(amountInput, 64); err == nil {
			amount = v
		} else {
			fmt.Println("Invalid amount, using default: 100.0")
		}
	}

	fmt.Println("\nDry run? (y/n, default: y):")
	dryRunInput, _ := readLine(scanner)
	dryRun := defaultDryRun
	if dryRunInput != "" {
		dryRun = strings.ToLower(dryRunInput) != "n"
	}

	return types.RunRequest{
		Prompt: prompt,
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		DryRun: dryRun,
		Amount: amount,
	}, true
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	fmt.Print("> ")
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func warnAmount(amount float64) {
	if amount > 100 {
		fmt.Printf("\nWARNING: Trading with a large amount ($%v). Make sure this is intentional.\n", amount)
	} else if amount <= 0.1 {
		fmt.Printf("\nNote: Trading with a small amount ($%v).\n", amount)
	}
}

// recordRun appends the run to the session log, and any executed order to
// the trade log.
func recordRun(ctx context.Context, result map[string]any) {
	if err := tradelog.Append(tradelog.FromResult(result)); err != nil {
		logger.Warn(ctx, "Failed to append session log", "error", err)
	}
	if trade, ok := tradelog.TradeFromResult(result); ok {
		if err := tradelog.AppendTrade(trade); err != nil {
			logger.Warn(ctx, "Failed to append trade log", "error", err)
		}
	}
}

func displayResult(result map[string]any, debug bool) {
	fmt.Println("\n===== Results =====")

	if errMsg, ok := result["error"].(string); ok {
		fmt.Printf("\nError: %s\n", errMsg)
		if msg, ok := result["message"].(string); ok {
			fmt.Printf("  %s\n", msg)
		}
		fmt.Printf("  Symbol: %v\n", result["symbol"])
		return
	}

	if msg, ok := result["message"].(string); ok && msg != "" {
		fmt.Printf("\nMessage: %s\n", msg)
	}
	if tradeErr, ok := result["trade_error"].(string); ok && tradeErr != "" {
		fmt.Printf("\nTrade error: %s\n", tradeErr)
	}

	displayTrade(result)
	displayMarket(result)
	displaySentiment(result)

	if elapsed, ok := result["elapsed_time"].(float64); ok {
		fmt.Printf("\nElapsed: %.2fs\n", elapsed)
	}

	if debug {
		if b, err := json.MarshalIndent(result, "", "  "); err == nil {
			fmt.Printf("\nFull result:\n%s\n", b)
		}
	}
}

func displayTrade(result map[string]any) {
	trade := toolResult(result, "TradingExecutionTool")
	if trade == nil {
		return
	}
	fmt.Println("\nTrade:")
	fmt.Printf("  Symbol: %v\n", trade["symbol"])
	fmt.Printf("  Direction: %v\n", trade["direction"])
	fmt.Printf("  Status: %v\n", trade["status"])

	switch trade["status"] {
	case "executed":
		fmt.Printf("  Order ID: %v\n", trade["order_id"])
		fmt.Printf("  Price: $%.2f\n", floatValue(trade["price"]))
		fmt.Printf("  Size: %.4f units\n", floatValue(trade["size"]))
		fmt.Printf("  Confidence: %.0f%%\n", floatValue(trade["confidence"])*100)
		fmt.Printf("  Stop Loss: $%.2f\n", floatValue(trade["stop_loss_price"]))
		fmt.Printf("  Take Profit: $%.2f\n", floatValue(trade["take_profit_price"]))
		if reasoning, ok := trade["reasoning"].(string); ok && reasoning != "" {
			fmt.Printf("  Reasoning: %s\n", reasoning)
		}
		if dryRun, ok := trade["dry_run"].(bool); ok && dryRun {
			fmt.Println("  This was a dry run (no actual trade executed)")
		}
	case "not_executed":
		fmt.Printf("  Reason: %v\n", trade["reason"])
	case "failed":
		fmt.Printf("  Error: %v\n", trade["error"])
	}
}

func displayMarket(result map[string]any) {
	market := toolResult(result, "MarketDataTool")
	if market == nil {
		return
	}
	fmt.Println("\nMarket Data:")
	fmt.Printf("  Current Price: $%.2f\n", floatValue(market["current_price"]))
	fmt.Printf("  24h Change: %.2f%%\n", floatValue(market["24h_change_percent"]))
	if indicators, ok := market["indicators"].(map[string]any); ok {
		fmt.Printf("  RSI: %.2f\n", floatValue(indicators["rsi_14"]))
	}
}

func displaySentiment(result map[string]any) {
	sent := toolResult(result, "TwitterSentimentTool")
	if sent == nil {
		return
	}
	fmt.Println("\nSentiment:")
	fmt.Printf("  Average Sentiment: %.2f\n", floatValue(sent["average_sentiment"]))
	fmt.Printf("  Label: %v\n", sent["sentiment_label"])
	fmt.Printf("  Tweet Count: %v\n", sent["tweet_count"])
}

// toolResult finds the first stored result whose key belongs to the given
// capability.
func toolResult(result map[string]any, capability string) map[string]any {
	results, ok := result["tool_results"].(map[string]map[string]any)
	if !ok {
		return nil
	}
	for key, r := range results {
		if strings.HasPrefix(key, capability) {
			return r
		}
	}
	return nil
}

func floatValue(v any) float64 {
	f, _ := v.(float64)
	return f
}
