// Package opsadmin is an interactive terminal client for operators. It
// drives the admin login flow, shows dashboard stats and uploads files
// through presigned URLs.
package opsadmin

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kingfluencer/backend/internal/netx"
)

type App struct {
	client *Client
	reader *bufio.Reader
}

func NewApp(serverAddr string) *App {
	return &App{
		client: NewClient(serverAddr),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) {
	fmt.Println("Kingfluencer ops console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("ops> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: login, token, stats, upload <file>, logout, exit")
		case "login":
			a.login(ctx)
		case "token":
			a.pasteToken()
		case "stats":
			a.stats(ctx)
		case "upload":
			if len(args) == 0 {
				fmt.Println("Usage: upload <file>")
				continue
			}
			a.upload(ctx, args[0])
		case "logout":
			a.logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Admin email", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if err := a.client.RequestOTP(ctx, email); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Code sent, check your mailbox.")

	code, err := GetSimpleText(a.reader, "Code", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	token, err := a.client.VerifyOTP(ctx, email, code)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	a.client.SetToken(token)
	fmt.Println("Logged in.")
}

// pasteToken accepts an existing session token instead of a full login.
func (a *App) pasteToken() {
	token, err := GetSecret("Session token", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	a.client.SetToken(token)
	fmt.Println("Token set.")
}

func (a *App) stats(ctx context.Context) {
	if !a.client.HasToken() {
		fmt.Println("Not logged in.")
		return
	}

	stats, err := a.client.Stats(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("Clients: %d\nInfluencers: %d\nVerified: %d\nActive sessions: %d\n",
		stats.Clients, stats.Influencers, stats.Verified, stats.ActiveSessions)
}

func (a *App) upload(ctx context.Context, path string) {
	if !a.client.HasToken() {
		fmt.Println("Not logged in.")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	key, url, err := a.client.PresignPut(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if err := netx.UploadToPresignedURL(ctx, url, data); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Uploaded as", key)
}

func (a *App) logout(ctx context.Context) {
	if !a.client.HasToken() {
		fmt.Println("Not logged in.")
		return
	}

	if err := a.client.Logout(ctx); err != nil {
		fmt.Println("Error:", err)
		return
	}
	a.client.SetToken("")
	fmt.Println("Logged out.")
}
