package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/hansobored/hanagent/agent/contract"
	historyx "github.com/hansobored/hanagent/agent/history"
	llmx "github.com/hansobored/hanagent/agent/llm"
	loopx "github.com/hansobored/hanagent/agent/loop"
	oraclex "github.com/hansobored/hanagent/agent/oracle"
	orchestratorx "github.com/hansobored/hanagent/agent/orchestrator"
	personax "github.com/hansobored/hanagent/agent/persona"
	promptx "github.com/hansobored/hanagent/agent/prompt"
	toolx "github.com/hansobored/hanagent/agent/tool"
	trackerx "github.com/hansobored/hanagent/agent/tracker"
	workspacex "github.com/hansobored/hanagent/agent/workspace"
	configx "github.com/hansobored/hanagent/pkg/config"
	_ "github.com/hansobored/hanagent/pkg/logger/autoload"
	openrouterx "github.com/hansobored/hanagent/pkg/openrouter"
)

type AppConfig struct {
	WorkspaceDir   string        `envconfig:"WORKSPACE_DIR" split_words:"true" default:"workspace"`
	HistoryFile    string        `envconfig:"HISTORY_FILE" split_words:"true" default:"history.json"`
	TodoFile       string        `envconfig:"TODO_FILE" split_words:"true" default:"todo.md"`
	MaxRetries     int           `envconfig:"MAX_RETRIES" split_words:"true" default:"2"`
	MaxRounds      int           `envconfig:"MAX_ROUNDS" split_words:"true" default:"40"`
	ToolPause      time.Duration `envconfig:"TOOL_PAUSE" split_words:"true" default:"2s"`
	SearchEndpoint string        `envconfig:"SEARCH_ENDPOINT" split_words:"true" default:"https://html.duckduckgo.com/html/"`
	SkipPing       bool          `envconfig:"SKIP_PING" split_words:"true" default:"false"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("HAN")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	if !appCfg.SkipPing {
		if err := openrouterx.Ping(ctx, llmCfg.OpenRouterFor(contractx.PersonaExecutor)); err != nil {
			log.Fatal().Err(err).Msg("openrouter unreachable")
		}
	}

	orch, ws, err := buildAgent(ctx, appCfg, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent")
	}

	fmt.Printf("workspace: %s\ntype a task, or \"exit\" to quit\n", ws.Root())
	repl(ctx, orch, ws)
}

func buildAgent(ctx context.Context, appCfg *AppConfig, llmCfg llmx.Config) (*orchestratorx.Orchestrator, *workspacex.Workspace, error) {
	ws, err := workspacex.New(appCfg.WorkspaceDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open workspace: %w", err)
	}
	if err := ws.Ensure(); err != nil {
		return nil, nil, fmt.Errorf("ensure workspace: %w", err)
	}

	hist, err := historyx.Open(appCfg.HistoryFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	todo, err := trackerx.NewFile(appCfg.TodoFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open checklist: %w", err)
	}

	prompts := promptx.LoadPromptSet()

	plannerModelCfg := llmCfg.OpenRouterFor(contractx.PersonaPlanner)
	plannerModel, err := plannerModelCfg.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create planner model: %v", contractx.ErrModelInvoke, err)
	}
	executorModelCfg := llmCfg.OpenRouterFor(contractx.PersonaExecutor)
	executorModel, err := executorModelCfg.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create executor model: %v", contractx.ErrModelInvoke, err)
	}
	validatorModelCfg := llmCfg.OpenRouterFor(contractx.PersonaValidator)
	validatorModel, err := validatorModelCfg.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create validator model: %v", contractx.ErrModelInvoke, err)
	}

	planner, err := personax.NewPlanner(ctx, plannerModel, prompts.Planner)
	if err != nil {
		return nil, nil, err
	}
	validator, err := personax.NewValidator(ctx, validatorModel, prompts.Validator)
	if err != nil {
		return nil, nil, err
	}

	registry, err := toolx.NewRegistry(
		toolx.FileSystem(ws),
		toolx.Execution(ws),
		toolx.Internet(toolx.InternetConfig{Endpoint: appCfg.SearchEndpoint}),
		toolx.Processes(toolx.NewProcessManager(ws)),
		toolx.Scratchpad(ws),
		toolx.Todo(todo),
		toolx.Control(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("build tool registry: %w", err)
	}

	oracle, err := oraclex.New(executorModel, prompts.Executor, registry.Specs())
	if err != nil {
		return nil, nil, fmt.Errorf("build oracle: %w", err)
	}

	executionLoop := loopx.New(oracle, hist, toolx.NewDispatcher(registry),
		loopx.WithToolPause(appCfg.ToolPause),
		loopx.WithMaxRounds(appCfg.MaxRounds),
	)

	orch, err := orchestratorx.New(
		planner,
		personax.NewExecutor(executionLoop),
		validator,
		hist,
		todo,
		orchestratorx.Config{MaxRetries: appCfg.MaxRetries},
	)
	if err != nil {
		return nil, nil, err
	}
	return orch, ws, nil
}

func repl(ctx context.Context, orch *orchestratorx.Orchestrator, ws *workspacex.Workspace) {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if orch.Suspended() {
			fmt.Print("answer> ")
		} else {
			fmt.Print("task> ")
		}
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		var (
			result orchestratorx.Result
			err    error
		)
		if orch.Suspended() {
			result, err = orch.Resume(ctx, line)
		} else {
			if confirmCleanWorkspace(in) {
				if err := ws.Clean(); err != nil {
					fmt.Printf("could not clean workspace: %v\n", err)
				}
			}
			result, err = orch.Run(ctx, line)
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		report(result)
	}
}

func confirmCleanWorkspace(in *bufio.Scanner) bool {
	fmt.Print("clean the workspace before starting? [y/N] ")
	if !in.Scan() {
		return false
	}
	answer := strings.TrimSpace(in.Text())
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func report(result orchestratorx.Result) {
	switch result.Status {
	case orchestratorx.StatusComplete:
		fmt.Printf("done: %s\n", result.Summary)
	case orchestratorx.StatusAborted:
		fmt.Printf("aborted on %q: %s\n", result.Item, result.Reasoning)
	case orchestratorx.StatusNeedsInput:
		fmt.Printf("the agent needs input on %q:\n%s\n", result.Item, result.Question)
	default:
		fmt.Printf("finished with status %s\n", result.Status)
	}
}
