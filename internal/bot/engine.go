// Package bot contains the platform-independent conversation engine and the
// Telegram/WhatsApp payload codecs feeding it.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"brdatabot/internal/domain"
	"brdatabot/internal/governance"
	"brdatabot/internal/query"
	"brdatabot/internal/storage"
)

// Inbound is one normalized user message, whichever platform it came from.
type Inbound struct {
	Platform  domain.Platform
	UserID    string
	FirstName string
	LastName  string
	Username  string
	Phone     string
	Text      string
	IP        string
}

// Engine runs the conversation policy for every inbound message: block check,
// rate limit, identity upsert, then command or awaiting-input dispatch.
// It always produces a reply text; failures degrade to user-facing messages,
// never to dropped conversations.
type Engine struct {
	governance *governance.Service
	queries    *query.Service
	users      storage.UserStore
	logger     *slog.Logger
}

// NewEngine wires the conversation engine.
func NewEngine(gov *governance.Service, queries *query.Service, users storage.UserStore, logger *slog.Logger) *Engine {
	return &Engine{
		governance: gov,
		queries:    queries,
		users:      users,
		logger:     logger,
	}
}

// Handle processes one inbound message and returns the reply text.
// Blocked users are answered before the rate counter moves or the identity
// record is touched, so a block fully freezes their footprint.
func (e *Engine) Handle(ctx context.Context, in Inbound) string {
	platform, userID := string(in.Platform), in.UserID

	if e.governance.IsBlocked(ctx, platform, userID) {
		e.logger.InfoContext(ctx, "message from blocked user rejected", "platform", platform)
		return msgBlocked
	}

	decision := e.governance.Check(ctx, platform, userID)
	if !decision.Allowed {
		if qt, ok := e.pendingQueryType(ctx, in); ok {
			e.queries.RecordRateLimited(ctx, e.subject(in), qt)
		}
		return rateLimitMessage(decision.RetryAfter)
	}

	e.upsertUser(ctx, in)
	return e.dispatch(ctx, in)
}

func (e *Engine) dispatch(ctx context.Context, in Inbound) string {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return msgMenu
	}
	if strings.HasPrefix(text, "/") {
		return e.dispatchCommand(ctx, in, text)
	}

	platform, userID := string(in.Platform), in.UserID
	if kind, ok := e.governance.Awaiting(ctx, platform, userID); ok {
		e.governance.ClearAwaiting(ctx, platform, userID)
		return e.dispatchAwaiting(ctx, in, kind, text)
	}
	return msgMenu
}

func (e *Engine) dispatchCommand(ctx context.Context, in Inbound, text string) string {
	platform, userID := string(in.Platform), in.UserID
	cmd, arg := splitCommand(text)

	// Any explicit command supersedes a pending prompt.
	e.governance.ClearAwaiting(ctx, platform, userID)

	switch cmd {
	case "/start":
		return msgWelcome
	case "/ajuda", "/help":
		return msgHelp
	case "/menu":
		return msgMenu
	case "/consulta_cnpj":
		return e.promptOrRun(ctx, in, awaitCNPJ, promptCNPJ, arg)
	case "/transparencia":
		e.governance.SetAwaiting(ctx, platform, userID, awaitTransparencia)
		return msgTransparenciaMenu
	case "/veicular":
		return e.promptOrRun(ctx, in, awaitPlate, promptPlate, arg)
	case "/dados_vazados":
		return e.promptOrRun(ctx, in, awaitEmail, promptEmail, arg)
	case "/cep":
		return e.promptOrRun(ctx, in, awaitCEP, promptCEP, arg)
	default:
		return msgUnknownCommand
	}
}

// promptOrRun runs the query immediately when the command carried its
// argument inline, otherwise arms the awaiting marker and prompts.
func (e *Engine) promptOrRun(ctx context.Context, in Inbound, kind, prompt, arg string) string {
	if arg != "" {
		return e.runQuery(ctx, in, kind, arg)
	}
	e.governance.SetAwaiting(ctx, string(in.Platform), in.UserID, kind)
	return prompt
}

func (e *Engine) dispatchAwaiting(ctx context.Context, in Inbound, kind, text string) string {
	platform, userID := string(in.Platform), in.UserID

	if kind == awaitTransparencia {
		switch strings.TrimSpace(text) {
		case "1":
			e.governance.SetAwaiting(ctx, platform, userID, awaitServants)
			return promptServants
		case "2":
			e.governance.SetAwaiting(ctx, platform, userID, awaitBenefits)
			return promptBenefits
		default:
			e.governance.SetAwaiting(ctx, platform, userID, awaitTransparencia)
			return msgTransparenciaMenu
		}
	}
	return e.runQuery(ctx, in, kind, text)
}

func (e *Engine) runQuery(ctx context.Context, in Inbound, kind, input string) string {
	sub := e.subject(in)

	switch kind {
	case awaitCNPJ:
		res, err := e.queries.CompanyByCNPJ(ctx, sub, input)
		if err != nil {
			return msgInvalidCNPJ
		}
		return formatCompany(res)
	case awaitServants:
		res, err := e.queries.ServantsByCPF(ctx, sub, input)
		if err != nil {
			return msgInvalidCPF
		}
		return formatServants(res)
	case awaitBenefits:
		res, err := e.queries.BenefitsByCPF(ctx, sub, input)
		if err != nil {
			return msgInvalidCPF
		}
		return formatBenefits(res)
	case awaitPlate:
		res, err := e.queries.VehicleByPlate(ctx, sub, input)
		if err != nil {
			return msgInvalidPlate
		}
		return formatVehicle(res)
	case awaitEmail:
		res, err := e.queries.BreachesByEmail(ctx, sub, input)
		if err != nil {
			return msgInvalidEmail
		}
		return formatBreaches(res)
	case awaitCEP:
		res, err := e.queries.AddressByCEP(ctx, sub, input)
		if err != nil {
			return msgInvalidCEP
		}
		return formatAddress(res)
	default:
		return msgMenu
	}
}

// pendingQueryType resolves which lookup a rate-limited message was about to
// run, so the denial still lands in the audit trail. Non-query chatter is not
// worth an entry.
func (e *Engine) pendingQueryType(ctx context.Context, in Inbound) (domain.QueryType, bool) {
	text := strings.TrimSpace(in.Text)
	if strings.HasPrefix(text, "/") {
		cmd, _ := splitCommand(text)
		switch cmd {
		case "/consulta_cnpj":
			return domain.QueryCNPJ, true
		case "/veicular":
			return domain.QueryVehicle, true
		case "/dados_vazados":
			return domain.QueryBreach, true
		case "/cep":
			return domain.QueryCEP, true
		}
		return "", false
	}

	kind, ok := e.governance.Awaiting(ctx, string(in.Platform), in.UserID)
	if !ok {
		return "", false
	}
	switch kind {
	case awaitCNPJ:
		return domain.QueryCNPJ, true
	case awaitServants:
		return domain.QueryServants, true
	case awaitBenefits:
		return domain.QueryBenefits, true
	case awaitPlate:
		return domain.QueryVehicle, true
	case awaitEmail:
		return domain.QueryBreach, true
	case awaitCEP:
		return domain.QueryCEP, true
	}
	return "", false
}

func (e *Engine) upsertUser(ctx context.Context, in Inbound) {
	user := domain.User{
		UserID:        in.UserID,
		Platform:      in.Platform,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Username:      in.Username,
		PhoneNumber:   in.Phone,
		AcceptedTerms: true,
	}
	if err := e.users.Upsert(ctx, user); err != nil {
		// Identity bookkeeping is best effort; the conversation goes on.
		e.logger.ErrorContext(ctx, "user upsert failed",
			"platform", in.Platform,
			"error", err,
		)
	}
}

func (e *Engine) subject(in Inbound) query.Subject {
	return query.Subject{Platform: in.Platform, UserID: in.UserID, IP: in.IP}
}

// splitCommand separates "/cmd arg" and strips a Telegram "@botname" suffix.
func splitCommand(text string) (cmd, arg string) {
	cmd, arg, _ = strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd, strings.TrimSpace(arg)
}
