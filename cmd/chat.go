package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/ai"
	"github.com/spigell/jobgenius/internal/chat"
	"github.com/spigell/jobgenius/internal/storage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the career assistant",
	Run: func(cmd *cobra.Command, _ []string) {
		chatLoop(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chatLoop(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	application, err := buildApplication(ctx, config, storage.NewMemory(logger.Named("storage")), logger)
	if err != nil {
		logger.Fatal("building service", zap.Error(err))
	}
	defer application.close()

	fmt.Println("Ask about jobs, resumes or interviews. Type exit or press Ctrl+C to leave.")

	var history []ai.Turn
	for {
		prompt := promptui.Prompt{Label: "you"}
		message, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("reading message", zap.Error(err))
		}

		if strings.EqualFold(strings.TrimSpace(message), "exit") {
			return
		}

		reply := application.service.Chat(ctx, message, history)
		fmt.Printf("jobgenius: %s\n\n", reply)

		if strings.TrimSpace(message) != "" {
			history = chat.Append(history, message, reply)
		}
	}
}
