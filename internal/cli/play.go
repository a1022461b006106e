package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rathi22/quizzia/internal/runner"
	"github.com/spf13/cobra"
)

// NewPlayCmd builds a terminal client for a running quizzia server.
func NewPlayCmd() *cobra.Command {
	var (
		serverURL string
		name      string
		roomCode  string
		category  string
		seconds   int
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join (or host) a quiz room from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), serverURL, name, roomCode, category, seconds)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "quiz server base URL")
	cmd.Flags().StringVar(&name, "name", "", "player name")
	cmd.Flags().StringVar(&roomCode, "room", "", "room code to join; empty hosts a new room")
	cmd.Flags().StringVar(&category, "category", "", "category to start with (host only)")
	cmd.Flags().IntVar(&seconds, "seconds", 15, "seconds per question")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runPlay(ctx context.Context, serverURL, name, roomCode, category string, seconds int) error {
	client := runner.NewClient(serverURL)

	hosting := roomCode == ""
	if hosting {
		created, err := client.CreateRoom(ctx, name)
		if err != nil {
			return err
		}
		roomCode = created
		fmt.Printf("room created, share this code: %s\n", roomCode)
	} else {
		if err := client.JoinRoom(ctx, roomCode, name); err != nil {
			return err
		}
		fmt.Printf("joined room %s\n", roomCode)
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	r := runner.New(name, client, time.Duration(seconds)*time.Second)
	r.JoinRoom(roomCode)

	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := client.Listen(listenCtx, r); err != nil && listenCtx.Err() == nil {
			log.Printf("connection closed: %v", err)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	if hosting {
		if category == "" {
			if names, err := client.Categories(ctx); err == nil {
				fmt.Printf("categories: %s\n", strings.Join(names, ", "))
			}
			fmt.Print("type a category to start the game: ")
			category = <-lines
		} else {
			fmt.Println("press enter to start the game")
			<-lines
		}
		r.StartGame(category)
	} else {
		fmt.Println("waiting for the host to start...")
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	lastShown := 0
	for {
		select {
		case <-ctx.Done():
			r.Exit()
			return nil

		case line, ok := <-lines:
			if !ok {
				r.Exit()
				return nil
			}
			if r.State() != runner.StateInGame {
				continue
			}
			choice, err := strconv.Atoi(line)
			if err != nil {
				fmt.Println("answer with the option number")
				continue
			}
			r.Answer(choice - 1)

		case <-ticker.C:
			switch r.State() {
			case runner.StateInGame:
				question, position, total := r.Question()
				if position != lastShown {
					lastShown = position
					fmt.Printf("\n[%s] question %d of %d: %s\n", r.Category(), position, total, question.Text)
					for i, opt := range question.Options {
						fmt.Printf("  %d) %s\n", i+1, opt.Text)
					}
					fmt.Print("> ")
				}
			case runner.StateFinished:
				// give the final leaderboard_update a moment to land
				time.Sleep(500 * time.Millisecond)
				fmt.Printf("\nfinal leaderboard:\n")
				for i, entry := range r.Leaderboard() {
					marker := " "
					if entry.IsSelf {
						marker = "*"
					}
					fmt.Printf("%s %d. %-20s %d\n", marker, i+1, entry.Name, entry.Score)
				}
				return nil
			}
		}
	}
}
