package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/codevhq/codev/internal/client"
	"github.com/codevhq/codev/internal/sandbox"
	"github.com/codevhq/codev/internal/workspace"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	serverURL := flag.String("server", envOr("CODEV_SERVER", "http://localhost:3000"), "server base URL")
	token := flag.String("token", os.Getenv("CODEV_TOKEN"), "bearer token (from login)")
	projectID := flag.String("project", "", "project id to join")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		logger.SetLevel(logger.LevelDebug)
	}

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "login":
			return loginCommand(*serverURL, args[1:])
		case "projects":
			return projectsCommand(*serverURL, *token)
		case "chat":
			args = args[1:]
		case "help", "--help", "-h":
			printUsage()
			return nil
		default:
			printUsage()
			return fmt.Errorf("unknown command: %s", args[0])
		}
	}

	if *token == "" {
		return fmt.Errorf("no token; run 'codev login' or set CODEV_TOKEN")
	}
	if *projectID == "" {
		return fmt.Errorf("-project is required")
	}

	return chat(*serverURL, *token, *projectID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println(`Usage: codev [flags] [command]

Commands:
  login      authenticate and print a token (email/password prompted)
  projects   list projects you are a member of
  chat       join a project room (default; requires -project)

Flags:
  -server    server base URL (default http://localhost:3000)
  -token     bearer token, or set CODEV_TOKEN
  -project   project id to join
  -debug     enable debug logging

In chat, plain lines are sent to the room. Prefix a line with "@ai " to
ask for a workspace. Commands: /run, /stop, /quit.`)
}

// chat joins the project room and runs the interactive loop. The most recent
// AI workspace is kept so /run can materialize and boot it.
func chat(serverURL, token, projectID string) error {
	var (
		mu     sync.Mutex
		latest workspace.Tree
	)
	runner := sandbox.NewRunner(sandbox.BootLocal)

	c := client.New(serverURL, token, projectID)

	c.OnError(func(payload types.SocketErrorPayload) {
		fmt.Printf("\r[server] %s (%s)\n> ", payload.Message, payload.Code)
	})

	c.OnMessage(func(event types.ProjectMessageEvent) {
		ts := time.UnixMilli(event.Timestamp).Format("15:04:05")
		if ws, ok := workspace.Parse(event.Message); ok {
			mu.Lock()
			latest = ws.ToTree(workspace.DefaultRoot)
			mu.Unlock()
			fmt.Printf("\r[%s] %s generated a workspace (%d files). Type /run to start it.\n> ", ts, event.User, len(ws.Files))
			return
		}
		fmt.Printf("\r[%s] %s: %s\n> ", ts, event.User, event.Message)
	})

	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	if !c.WaitForConnect(10 * time.Second) {
		return fmt.Errorf("connection timed out")
	}

	fmt.Printf("Joined project %s. Type /quit to leave.\n", projectID)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			runner.Stop()
			return nil
		case line == "/stop":
			runner.Stop()
			fmt.Println("Stopped.")
		case line == "/run":
			mu.Lock()
			tree := latest
			mu.Unlock()
			if tree == nil {
				fmt.Println("No workspace yet; ask @ai for one first.")
				break
			}
			go func() {
				err := runner.Run(context.Background(), tree, sandbox.RunConfig{
					Logs: func(line string) {
						fmt.Printf("\r[sandbox] %s\n> ", strings.TrimRight(line, "\n"))
					},
					OnPreview: func(url string) {
						fmt.Printf("\r[sandbox] preview ready: %s\n> ", url)
					},
				})
				if err != nil {
					fmt.Printf("\r[sandbox] run failed: %v\n> ", err)
				}
			}()
		default:
			if err := c.SendMessage(line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
		fmt.Print("> ")
	}
	runner.Stop()
	return scanner.Err()
}

// loginCommand authenticates against the REST API and prints the token.
func loginCommand(serverURL string, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	register := fs.Bool("register", false, "create the account first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("-email and -password are required")
	}

	path := "/users/login"
	if *register {
		path = "/users/register"
	}

	body, _ := json.Marshal(map[string]string{"email": *email, "password": *password})
	resp, err := http.Post(serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var errResp types.ErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("login failed: %s", errResp.Error)
		}
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var authResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &authResp); err != nil || authResp.Token == "" {
		return fmt.Errorf("unexpected login response")
	}

	fmt.Println(authResp.Token)
	return nil
}

// projectsCommand lists the caller's projects.
func projectsCommand(serverURL, token string) error {
	if token == "" {
		return fmt.Errorf("no token; run 'codev login' or set CODEV_TOKEN")
	}

	req, err := http.NewRequest(http.MethodGet, serverURL+"/projects/all", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("list projects failed: status %d", resp.StatusCode)
	}

	var listResp struct {
		Projects []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return err
	}

	if len(listResp.Projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, p := range listResp.Projects {
		fmt.Printf("%s  %s\n", p.ID, p.Name)
	}
	return nil
}
