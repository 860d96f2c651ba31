package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Monopoly Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Monopoly Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

HOW A GAME GOES:
1. create_session (optionally with a config_id from list_configs)
2. join_session once per player; the game starts when enough players joined
3. On your turn: roll_dice, optionally buy_property, then end_turn
   (buying ends your turn automatically)
4. The last solvent player wins

AVAILABLE TOOLS:
- create_session, get_session, list_sessions: session management
- join_session: take a seat
- game_state: players, money, positions, owned spaces
- roll_dice, buy_property, end_turn: the common actions
- game_action: any action by name, including jail actions
- recent_events: what happened lately
- list_configs: available rules presets
- game_rules: board and rules summary

Rejected actions are not errors: the result says why it was rejected and the state is unchanged.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func playerProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "ID of the acting player",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional rules preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Rules preset to use (optional, see list_configs)",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Desired session ID (optional, generated when empty)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_session",
		Description: "Join a waiting session as a new player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Player ID (optional, generated when empty)",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Display name (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleJoinSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	turnTools := []struct {
		name        string
		description string
		action      engine.ActionKind
	}{
		{"roll_dice", "Roll the dice and move", engine.ActionRollDice},
		{"buy_property", "Buy the space you are standing on; ends your turn", engine.ActionBuyProperty},
		{"end_turn", "End your turn", engine.ActionEndTurn},
	}
	for _, tool := range turnTools {
		c.mcpServer.AddTool(mcp.Tool{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"session_id": sessionProperty(),
					"player_id":  playerProperty(),
				},
				Required: []string{"session_id", "player_id"},
			},
		}, c.actionHandler(tool.action))
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_action",
		Description: "Submit any player action by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"player_id":  playerProperty(),
				"action": map[string]interface{}{
					"type": "string",
					"enum": []string{
						string(engine.ActionRollDice),
						string(engine.ActionBuyProperty),
						string(engine.ActionEndTurn),
						string(engine.ActionUseJailCard),
						string(engine.ActionPayJailFine),
						string(engine.ActionAuction),
						string(engine.ActionMortgage),
					},
					"description": "Action to perform",
				},
			},
			Required: []string{"session_id", "player_id", "action"},
		},
	}, c.handleGameAction)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "recent_events",
		Description: "List the most recent game events of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Number of events to return (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRecentEvents)

	// Configuration and rules
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rules presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Explain the rules and show the board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func sessionPath(sessionID string, parts ...string) string {
	path := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		path += "/" + part
	}
	return path
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}
	if id := stringArg(args, "session_id"); id != "" {
		body["id"] = id
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", info.ID, info.ConfigName)
	if info.GameConfig != nil {
		result += fmt.Sprintf("Players: %d-%d, starting money $%d\nNext: join_session with session_id %s\n",
			info.GameConfig.MinPlayers, info.GameConfig.MaxPlayers, info.GameConfig.StartingMoney, info.ID)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, Status: %s, Players: %d, Created: %s)\n",
			s.ID, s.ConfigName, s.Status, s.PlayerCount, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleJoinSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	body := map[string]string{
		"player_id": stringArg(args, "player_id"),
		"name":      stringArg(args, "name"),
	}

	var joined service.JoinResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "join"), body, &joined); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Joined session %s as player %s\n", sessionID, joined.PlayerID)
	writeEvents(&b, joined.Events)
	b.WriteString("\n")
	b.WriteString(formatGameState(joined.GameState))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// actionHandler returns a tool handler that submits a fixed action kind
func (c *Client) actionHandler(kind engine.ActionKind) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		return c.submitAction(ctx, stringArg(args, "session_id"), engine.Action{
			Type:     kind,
			PlayerID: stringArg(args, "player_id"),
		})
	}
}

func (c *Client) handleGameAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	kind := strings.ToUpper(stringArg(args, "action"))
	if kind == "" {
		return mcp.NewToolResultError("action is required"), nil
	}

	return c.submitAction(ctx, stringArg(args, "session_id"), engine.Action{
		Type:     engine.ActionKind(kind),
		PlayerID: stringArg(args, "player_id"),
	})
}

func (c *Client) submitAction(ctx context.Context, sessionID string, action engine.Action) (*mcp.CallToolResult, error) {
	if action.PlayerID == "" {
		return mcp.NewToolResultError("player_id is required"), nil
	}

	var result engine.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "actions"), action, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(action, &result)), nil
}

func (c *Client) handleRecentEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	limit := 20
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var response struct {
		Count  int            `json:"count"`
		Events []engine.Event `json:"events"`
	}
	path := fmt.Sprintf("%s?limit=%d", sessionPath(sessionID, "events"), limit)
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent events (%d):\n", response.Count)
	writeEvents(&b, response.Events)
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		rent := "off"
		if cfg.RentOnLanding {
			rent = "on"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Players: %d-%d, Starting money: $%d, Rent: %s\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.MinPlayers, cfg.MaxPlayers, cfg.StartingMoney, rent)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var board []engine.PropertySpace
	if err := c.apiCall(ctx, "GET", "/api/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(`Monopoly Game - Rules

TURN:
• Roll two dice and move clockwise; passing or landing on GO pays the GO bonus
• Doubles let you roll again, unless they sent you to jail
• Buy the space you stand on if it is unowned and you can afford it; buying ends your turn
• END_TURN passes play to the next solvent player

SPECIAL SPACES:
• Income Tax and Super Tax charge a fixed amount
• Go To Jail sends you to jail without passing GO
• Chance and Community Chest draw a card; decks reshuffle when empty

JAIL:
• Roll doubles to leave, pay the fine (PAY_JAIL_FINE) or use a card (USE_JAIL_CARD)
• After the maximum number of failed rolls you pay the fine and leave

BANKRUPTCY:
• A player whose money drops below zero is bankrupt and their spaces return to the bank
• The last solvent player wins

BOARD:
`)
	for _, space := range board {
		fmt.Fprintf(&b, "%2d %-24s %-15s", space.ID, space.Name, space.Category)
		if space.Purchasable() {
			fmt.Fprintf(&b, " $%d", space.Price)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\nStatus: %s\nPlayers: %d\nCreated: %s\nLast accessed: %s\n",
		info.ID, info.ConfigName, info.Status, info.PlayerCount,
		info.CreatedAt.Format(time.RFC3339), info.LastAccessedAt.Format(time.RFC3339))
	if info.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(info.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s", state.Status)
	if state.Status == engine.StatusPlaying {
		fmt.Fprintf(&b, " (turn %d)", state.TurnNumber)
	}
	b.WriteString("\n")

	if active := state.ActivePlayer(); active != nil && state.Status == engine.StatusPlaying {
		fmt.Fprintf(&b, "Current player: %s (%s)\n", active.Name, active.ID)
	}
	if state.Dice != nil {
		fmt.Fprintf(&b, "Last roll: %d + %d = %d", state.Dice[0], state.Dice[1], state.Dice.Sum())
		if state.Dice.IsDoubles() {
			b.WriteString(" (doubles)")
		}
		if state.CanRollAgain {
			b.WriteString(", may roll again")
		}
		b.WriteString("\n")
	}
	if state.Status == engine.StatusFinished {
		if state.Winner != "" {
			fmt.Fprintf(&b, "Winner: %s\n", state.Winner)
		} else {
			b.WriteString("No winner\n")
		}
	}

	b.WriteString("\nPlayers:\n")
	for i, p := range state.Players {
		marker := " "
		if i == state.CurrentPlayer && state.Status == engine.StatusPlaying {
			marker = ">"
		}
		location := fmt.Sprintf("%d", p.Position)
		if p.Position >= 0 && p.Position < len(state.Board) {
			location = state.Board[p.Position].Name
		}
		fmt.Fprintf(&b, "%s %s [%s] $%d at %s", marker, p.Name, p.Token, p.Money, location)
		if p.InJail {
			fmt.Fprintf(&b, ", in jail (%d turns)", p.JailTurns)
		}
		if p.GetOutOfJailCards > 0 {
			fmt.Fprintf(&b, ", %d jail card(s)", p.GetOutOfJailCards)
		}
		if p.IsBankrupt {
			b.WriteString(", BANKRUPT")
		}
		b.WriteString("\n")

		if len(p.Properties) > 0 {
			names := make([]string, 0, len(p.Properties))
			for _, id := range p.Properties {
				if id >= 0 && id < len(state.Board) {
					names = append(names, state.Board[id].Name)
				}
			}
			fmt.Fprintf(&b, "    owns: %s\n", strings.Join(names, ", "))
		}
	}
	return b.String()
}

func formatActionResult(action engine.Action, result *engine.ActionResult) string {
	var b strings.Builder
	if result.Applied {
		fmt.Fprintf(&b, "%s by %s: applied\n", action.Type, action.PlayerID)
	} else {
		fmt.Fprintf(&b, "%s by %s: rejected (%s)\n", action.Type, action.PlayerID, result.Reason)
	}
	writeEvents(&b, result.Events)
	b.WriteString("\n")
	b.WriteString(formatGameState(result.State))
	return b.String()
}

func writeEvents(b *strings.Builder, events []engine.Event) {
	for _, ev := range events {
		fmt.Fprintf(b, "  • [%s] %s\n", ev.Type, ev.Message)
	}
}
