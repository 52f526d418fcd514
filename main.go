package main

import (
	"log"

	"github.com/wavehq/hrbridge/config"
	"github.com/wavehq/hrbridge/db"
	"github.com/wavehq/hrbridge/server"
	"github.com/wavehq/hrbridge/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)
	if err := db.SeedRoles(gormDB.DB); err != nil {
		log.Fatalf("error seeding roles: %v", err)
	}

	authRepo := db.NewAuthRepo(gormDB)
	conversationRepo := db.NewConversationRepo(gormDB)
	messageRepo := db.NewMessageRepo(gormDB)
	feedbackRepo := db.NewFeedbackRepo(gormDB)
	attachmentRepo := db.NewAttachmentRepo(gormDB)

	bus := services.NewLiveBus()
	authService := services.NewAuthService(authRepo, bus, conf)
	chatService := services.NewChatService(conversationRepo, messageRepo, bus, conf)
	feedbackService := services.NewFeedbackService(feedbackRepo, bus, conf)
	storageService := services.NewStorageService(attachmentRepo, conf)
	liveService := services.NewLiveService(authRepo, feedbackRepo, conversationRepo, messageRepo, bus)

	s := &server.Server{
		Config:          conf,
		AuthService:     authService,
		ChatService:     chatService,
		FeedbackService: feedbackService,
		StorageService:  storageService,
		LiveService:     liveService,
		DB:              *gormDB,
	}

	s.Start()
}
