package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"ragchat/internal/config"
	"ragchat/internal/db"
	"ragchat/internal/handlers"
	"ragchat/internal/repositories"
	"ragchat/internal/routes"
	"ragchat/internal/services"
)

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewServer wires the whole application from config and returns an HTTP
// server ready to listen
func NewServer(cfg *config.AppConfig) (*http.Server, error) {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Vector store backend
	chromaClient, err := db.NewChromaDBClient(db.ChromaDBConfig{
		URL:      cfg.Chroma.URL,
		Tenant:   cfg.Chroma.Tenant,
		Database: cfg.Chroma.Database,
	})
	if err != nil {
		return nil, err
	}
	if err := chromaClient.Heartbeat(ctx); err != nil {
		logger.Printf("ChromaDB not reachable at %s: %v", cfg.Chroma.URL, err)
		logger.Println("Hint: docker run -d -p 8000:8000 chromadb/chroma")
	} else {
		logger.Println("ChromaDB connected")
	}
	vectorRepo := repositories.NewChromaVectorRepository(chromaClient)

	// Checkpoint memory: Redis when configured, in-process otherwise
	var checkpoints repositories.CheckpointRepository
	if cfg.Redis.Addr != "" {
		redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.RedisPassword(),
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Printf("Redis not reachable at %s, falling back to in-memory checkpoints: %v", cfg.Redis.Addr, err)
			checkpoints = repositories.NewMemoryCheckpointRepository()
		} else {
			logger.Println("Redis connected, using durable checkpoints")
			checkpoints = repositories.NewRedisCheckpointRepository(redisClient)
		}
	} else {
		checkpoints = repositories.NewMemoryCheckpointRepository()
	}

	// Model collaborators
	embedder, err := services.NewEmbeddingService(services.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.APIKey(),
		Model:   cfg.LLM.EmbeddingModel,
	}, log.New(os.Stdout, "[EMBED] ", log.LstdFlags))
	if err != nil {
		return nil, err
	}
	llm, err := services.NewLLMService(services.LLMConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.APIKey(),
		Model:       cfg.LLM.ChatModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	}, log.New(os.Stdout, "[LLM] ", log.LstdFlags))
	if err != nil {
		return nil, err
	}

	// Ingestion pipeline
	loaderService := services.NewLoaderService(log.New(os.Stdout, "[LOADER] ", log.LstdFlags))
	storeService := services.NewVectorStoreService(vectorRepo, embedder, log.New(os.Stdout, "[STORE] ", log.LstdFlags))

	var keywords *services.KeywordExtractor
	if cfg.Index.Keywords {
		keywords = services.NewKeywordExtractor()
	}
	retrieverService := services.NewRetrieverService(loaderService, storeService, vectorRepo, embedder, keywords,
		log.New(os.Stdout, "[RETRIEVER] ", log.LstdFlags))

	// Conversation service; RAG stays disabled until a retriever attaches
	chatService := services.NewChatService(llm, nil, checkpoints, log.New(os.Stdout, "[CHAT] ", log.LstdFlags))
	chatService.SetTokenBudget(cfg.Chat.TokenBudget, cfg.Chat.TokenDivisor)

	retrieverOpts := retrieverOptions(cfg)
	if retriever, err := retrieverService.Connect(ctx, retrieverOpts); err != nil {
		logger.Printf("RAG disabled until an index is built: %v", err)
	} else {
		chatService.SetRetriever(retriever)
		logger.Printf("RAG enabled against collection %s", cfg.Index.CollectionName)
	}

	h := &routes.Handlers{
		Health:     handlers.HealthHandler,
		Chat:       handlers.NewChatHandler(chatService, logger),
		Index:      handlers.NewIndexHandler(retrieverService, chatService, retrieverOpts, logger),
		Collection: handlers.NewCollectionHandler(storeService, vectorRepo, logger),
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsMiddleware(router),
	}, nil
}

// retrieverOptions maps config values onto pipeline options
func retrieverOptions(cfg *config.AppConfig) services.RetrieverOptions {
	opts := services.DefaultRetrieverOptions(cfg.Index.DocsDir, cfg.Index.CollectionName)
	opts.ChunkSize = cfg.Index.ChunkSize
	opts.ChunkOverlap = cfg.Index.ChunkOverlap
	opts.TopK = cfg.Index.TopK
	opts.Store.BatchSize = cfg.Index.BatchSize
	opts.Store.EmbedBatchSize = cfg.Index.EmbedBatchSize
	if cfg.Index.Reset != nil {
		opts.Store.Reset = *cfg.Index.Reset
	}
	return opts
}
