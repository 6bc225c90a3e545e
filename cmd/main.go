package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"sweetshop/config"
	"sweetshop/internal/pkg/cache"
	"sweetshop/internal/pkg/database"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"sweetshop/internal/api/router"
	"sweetshop/internal/api/sweet"
	"sweetshop/internal/api/user"
	"sweetshop/internal/repository/sweetrepo"
	"sweetshop/internal/repository/userrepo"
	"sweetshop/internal/service/sweetservice"
	"sweetshop/internal/service/userservice"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Se o arquivo .env não for encontrado, seguimos em frente: as variáveis
	// essenciais podem estar no ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Inicialização
	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT, expiração de 7 dias)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	userHandler := user.NewHandler(userSvc, log)

	sweetRepo := sweetrepo.NewSweetRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	sweetSvc := sweetservice.NewService(sweetRepo, log)
	sweetHandler := sweet.NewHandler(sweetSvc, log)

	log.Debug("Camadas de usuário e inventário inicializadas.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(sweetHandler, userHandler, tokenSvc, userRepo, cacheClient, router.RateLimitConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor SweetShop ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
