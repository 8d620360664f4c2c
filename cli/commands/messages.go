package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/anthropic"
)

func (a *App) newMessagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg"},
		Short:   "Send messages to a model",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a message",
		Long: `Send a single user message and print the reply.

The prompt comes from --prompt or, when stdin is not a terminal, from stdin.

Examples:
  anthropic messages create --prompt "Hello"
  anthropic messages create --prompt "Hello" --stream
  echo "Summarize this" | anthropic messages create --json`,
		Args: cobra.NoArgs,
		RunE: a.runMessagesCreate,
	}

	create.Flags().StringVarP(&a.msgPrompt, "prompt", "p", "", "user message")
	create.Flags().StringVar(&a.msgSystem, "system", "", "system prompt")
	create.Flags().Float64Var(&a.msgTemperature, "temperature", -1, "sampling temperature (negative = API default)")
	create.Flags().IntVar(&a.msgMaxTokens, "max-tokens", 0, "max tokens to generate (0 = config or 2048)")
	create.Flags().BoolVar(&a.msgStream, "stream", false, "stream the reply as it is generated")

	cmd.AddCommand(create)
	return cmd
}

func (a *App) runMessagesCreate(cmd *cobra.Command, args []string) error {
	prompt, err := a.readPrompt()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	req, err := a.buildRequest(prompt)
	if err != nil {
		return a.handleError(err)
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a.logger.Debug("creating message",
		zap.String("model", req.Model),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Bool("stream", a.msgStream),
	)

	if a.msgStream {
		return a.streamMessage(ctx, client, req)
	}

	resp, err := client.Messages().Create(ctx, req)
	if err != nil {
		return a.handleError(err)
	}
	return a.printMessage(resp)
}

func (a *App) readPrompt() (string, error) {
	if p := strings.TrimSpace(a.msgPrompt); p != "" {
		return p, nil
	}
	if a.stdinIsTTY() {
		return "", errors.New("prompt required: use --prompt or pipe text on stdin")
	}

	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	p := strings.TrimSpace(string(data))
	if p == "" {
		return "", errors.New("prompt required: stdin was empty")
	}
	return p, nil
}

func (a *App) buildRequest(prompt string) (*anthropic.CreateMessagesRequest, error) {
	model := a.model
	if model == "" {
		model = anthropic.ModelClaudeSonnet45
	}

	b := anthropic.NewRequest(model)
	if a.msgSystem != "" {
		b.System(a.msgSystem)
	}
	b.User(prompt)

	maxTokens := a.msgMaxTokens
	if maxTokens <= 0 && a.cfg != nil {
		maxTokens = a.cfg.MaxTokens
	}
	if maxTokens > 0 {
		b.MaxTokens(maxTokens)
	}
	if a.msgTemperature >= 0 {
		b.Temperature(a.msgTemperature)
	}
	return b.Build()
}

// streamMessage prints text deltas as they arrive. With --json the reply is
// accumulated and printed once complete.
func (a *App) streamMessage(ctx context.Context, client *anthropic.Client, req *anthropic.CreateMessagesRequest) error {
	stream, err := client.Messages().CreateStream(ctx, req)
	if err != nil {
		return a.handleError(err)
	}
	defer stream.Close()

	acc := anthropic.NewMessageAccumulator()
	for ev, err := range stream.All() {
		if err != nil {
			if !a.jsonOutput {
				fmt.Fprintln(a.stdout)
			}
			return a.handleError(err)
		}
		if err := acc.Add(ev); err != nil {
			return a.handleError(err)
		}
		if a.jsonOutput {
			continue
		}
		if delta, ok := ev.StreamEvent.(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.(anthropic.TextDelta); ok {
				fmt.Fprint(a.stdout, text.Text)
			}
		}
	}

	resp, err := acc.Message()
	if err != nil {
		return a.handleError(err)
	}
	if a.jsonOutput {
		return a.writeJSON(resp)
	}

	fmt.Fprintln(a.stdout)
	a.logUsage(resp)
	return nil
}

func (a *App) printMessage(resp *anthropic.CreateMessagesResponse) error {
	if a.jsonOutput {
		return a.writeJSON(resp)
	}

	fmt.Fprintln(a.stdout, resp.Text())
	for _, call := range resp.ToolUses() {
		fmt.Fprintf(a.stdout, "[tool_use %s] %s %s\n", call.ID, call.Name, string(call.Input))
	}
	a.logUsage(resp)
	return nil
}

func (a *App) logUsage(resp *anthropic.CreateMessagesResponse) {
	if resp.Usage == nil {
		return
	}
	a.logger.Debug("usage",
		zap.String("id", resp.ID),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)
}

func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
