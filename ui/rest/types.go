package rest

import "time"

// --- Admin: tenants y planes ---

type CreateTenantRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ModuleAPI       bool   `json:"module_api"`
	ModuleScheduler bool   `json:"module_scheduler"`
	ModuleChatbot   bool   `json:"module_chatbot"`
}

type CreatePlanRequest struct {
	Name                 string `json:"name"`
	MaxInstances         int    `json:"max_instances"`
	MaxChatbots          int    `json:"max_chatbots"`
	MonthlyConversations int    `json:"monthly_conversations"`
	DurationKind         string `json:"duration_kind"`
	DurationValue        int    `json:"duration_value"`
}

type AssignPlanRequest struct {
	PlanID string `json:"plan_id"`
}

// --- Admin: instancias ---

type CreateInstanceRequest struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

type UpdateWebhookConfigRequest struct {
	URL          string `json:"url"`
	SendMessages *bool  `json:"send_messages"`
	SendAck      *bool  `json:"send_ack"`
	SendPresence *bool  `json:"send_presence"`
}

// --- Northbound: mensajería ---

type SendTextRequest struct {
	To      string `json:"to" form:"to"`
	Message string `json:"message" form:"message"`
	Type    string `json:"type" form:"type"` // vacío = texto, "image" = imagen por URL
	URL     string `json:"url" form:"url"`
	Caption string `json:"caption" form:"caption"`
}

type MessageActionRequest struct {
	To  string         `json:"to"`
	Key map[string]any `json:"key"`
	// Campos libres según la operación (nuevo texto en edit, etc).
	Message  string `json:"message,omitempty"`
	Reaction string `json:"reaction,omitempty"`
}

type ChatActionRequest struct {
	JID      string `json:"jid"`
	Duration int    `json:"duration,omitempty"` // mute, en segundos
}

type GroupCreateRequest struct {
	Subject      string   `json:"subject"`
	Participants []string `json:"participants"`
}

type GroupJoinRequest struct {
	InviteCode string `json:"invite_code"`
}

type GroupParticipantsRequest struct {
	Action       string   `json:"action"` // add | remove | promote | demote
	Participants []string `json:"participants"`
}

type ProfileStatusRequest struct {
	Status string `json:"status"`
}

type UserActionRequest struct {
	JID string `json:"jid"`
}

// --- Admin: dispatch ---

type CreateTemplateRequest struct {
	Name        string `json:"name"`
	Body        string `json:"body"`
	MediaFileID string `json:"media_file_id"`
}

type CreateContactGroupRequest struct {
	Name     string                `json:"name"`
	Contacts []GroupContactPayload `json:"contacts"`
}

type GroupContactPayload struct {
	JID         string `json:"jid"`
	DisplayName string `json:"display_name"`
}

type CreateCampaignRequest struct {
	InstanceID           string     `json:"instance_id"`
	Name                 string     `json:"name"`
	StartAt              *time.Time `json:"start_at"`
	MinDelaySeconds      int        `json:"min_delay_seconds"`
	MaxDelaySeconds      int        `json:"max_delay_seconds"`
	MessagesPerRecipient int        `json:"messages_per_recipient"`
	UseNamePlaceholder   bool       `json:"use_name_placeholder"`
	RawNumbers           string     `json:"raw_numbers"`
	GroupIDs             []string   `json:"group_ids"`
	TemplateIDs          []string   `json:"template_ids"`
}

// --- Admin: chatbot ---

type UpsertChatbotRequest struct {
	InstanceID         string `json:"instance_id"`
	Active             *bool  `json:"active"`
	CompanyName        string `json:"company_name"`
	Personality        string `json:"personality"`
	Tone               string `json:"tone"`
	Segment            string `json:"segment"`
	Summary            string `json:"summary"`
	OpeningHours       string `json:"opening_hours"`
	BusinessContext    string `json:"business_context"`
	Skills             string `json:"skills"`
	Extras             string `json:"extras"`
	InternalNotes      string `json:"internal_notes"`
	WebsiteURL         string `json:"website_url"`
	Provider           string `json:"provider"`
	Model              string `json:"model"`
	APIKey             string `json:"api_key"`
	TriggerOnUnknown   *bool  `json:"trigger_on_unknown"`
	RespondInGroups    *bool  `json:"respond_in_groups"`
	AllowMedia         *bool  `json:"allow_media"`
	SimulateTyping     *bool  `json:"simulate_typing"`
	TypingMinMs        int    `json:"typing_min_ms"`
	TypingMaxMs        int    `json:"typing_max_ms"`
	HistoryLimit       int    `json:"history_limit"`
	ConversationsLimit int    `json:"conversations_limit"`
	TokenLimit         int64  `json:"token_limit"`
	Periodicity        string `json:"periodicity"`

	Transfers []TransferPayload `json:"transfers"`
}

type TransferPayload struct {
	Label  string `json:"label"`
	Number string `json:"number"`
	Active bool   `json:"active"`
}

type CatalogEntryRequest struct {
	MediaFileID      string `json:"media_file_id"`
	Kind             string `json:"kind"`
	Description      string `json:"description"`
	IsAccessibleByAI *bool  `json:"is_accessible_by_ai"`
}

type ContactUpdateRequest struct {
	IsBlocked *bool   `json:"is_blocked"`
	Notes     *string `json:"notes"`
	PushName  *string `json:"push_name"`
}

// --- Webhook del bridge ---

type BridgeWebhookFrame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}
