// Package api is the wire contract shared by the gRPC server and the CLI.
//
// The service is registered by hand (no generated stubs). Every request and
// response is a google.protobuf.Struct carrying the JSON form of one of the
// DTOs below; Encode and Decode convert between the two.
package api

import (
	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/models"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "questboard.QuestBoard"

// Method names.
const (
	MethodPing                 = "Ping"
	MethodRegister             = "Register"
	MethodLogin                = "Login"
	MethodRefreshToken         = "RefreshToken"
	MethodLogout               = "Logout"
	MethodGetProfile           = "GetProfile"
	MethodUpdateProfile        = "UpdateProfile"
	MethodRequestPictureUpload = "RequestPictureUpload"
	MethodPictureURL           = "PictureURL"
	MethodPostQuest            = "PostQuest"
	MethodGetQuest             = "GetQuest"
	MethodListQuests           = "ListQuests"
	MethodListMyQuests         = "ListMyQuests"
	MethodUpdateQuest          = "UpdateQuest"
	MethodDeleteQuest          = "DeleteQuest"
	MethodExpressInterest      = "ExpressInterest"
	MethodListNotifications    = "ListNotifications"
	MethodAcceptInterest       = "AcceptInterest"
	MethodDeclineInterest      = "DeclineInterest"
	MethodInbox                = "Inbox"
	MethodConversation         = "Conversation"
	MethodSendMessage          = "SendMessage"
	MethodWatch                = "Watch"
)

// AccessTokenHeader is the metadata key carrying the access JWT.
const AccessTokenHeader = common.AccessTokenHeaderName

// FullMethod returns the "/service/method" path used by gRPC.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// PublicMethods lists the methods callable without an access token.
var PublicMethods = map[string]bool{
	FullMethod(MethodPing):         true,
	FullMethod(MethodRegister):     true,
	FullMethod(MethodLogin):        true,
	FullMethod(MethodRefreshToken): true,
	FullMethod(MethodLogout):       true,
}

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Tokens is returned by Login and RefreshToken.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// IDRequest addresses one record: a user, quest or notification.
type IDRequest struct {
	ID string `json:"id"`
}

type ProfileResponse struct {
	Profile models.Profile `json:"profile"`
}

type PictureUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PictureURLRequest struct {
	Key string `json:"key"`
}

type PictureURLResponse struct {
	URL string `json:"url"`
}

type QuestResponse struct {
	Quest models.Quest `json:"quest"`
}

type ListQuestsRequest struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
}

type QuestsResponse struct {
	Quests []models.Quest `json:"quests"`
}

type UpdateQuestRequest struct {
	ID   string           `json:"id"`
	Edit models.QuestEdit `json:"edit"`
}

type NotificationResponse struct {
	Notification models.Notification `json:"notification"`
}

type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

type AcceptResponse struct {
	ConversationID string `json:"conversationId"`
}

type InboxResponse struct {
	Conversations []models.ConversationSummary `json:"conversations"`
}

type ConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
}

type MessageResponse struct {
	Message models.Message `json:"message"`
}
