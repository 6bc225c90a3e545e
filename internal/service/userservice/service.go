package userservice

import (
	"context"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"sweetshop/internal/domain"
	apperror "sweetshop/internal/errors"
	"sweetshop/internal/pkg/logger"
	"sweetshop/internal/pkg/token"
)

// emailShape valida apenas o formato geral do endereço (local@dominio.tld).
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID, email, role string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserService implementa a lógica de negócio de registro e login.
type UserService struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, logger logger.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		logger:   logger,
	}
}

// Register registra um novo usuário no sistema.
// Faz o hashing da senha e normaliza a role: somente o valor explícito
// "admin" cria um administrador, qualquer outro valor vira "user".
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.PublicUser, error) {
	// 1. Validação Básica
	if registration.Name == "" || registration.Email == "" || registration.Password == "" {
		return domain.PublicUser{}, apperror.NewValidationError("name, email and password required")
	}
	if !emailShape.MatchString(registration.Email) {
		return domain.PublicUser{}, apperror.NewValidationError("A valid email address is required")
	}

	// 2. Hashing da Senha (bcrypt, custo padrão de 10 rounds)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.PublicUser{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	role := domain.RoleUser
	if registration.Role == string(domain.RoleAdmin) {
		role = domain.RoleAdmin
	}

	newUser := domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	// 3. Persistência. Email duplicado chega do repositório já como
	// ConflictError (409) e sobe inalterado.
	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		return domain.PublicUser{}, err
	}

	s.logger.Info("Novo usuário registrado.", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return user.Public(), nil
}

// Login autentica um usuário, verifica a senha e gera um JWT de 7 dias.
// "Usuário inexistente" e "senha incorreta" retornam exatamente o mesmo erro
// para não permitir enumeração de contas.
func (s *UserService) Login(ctx context.Context, email string, password string) (string, error) {
	// 1. Validação Básica
	if email == "" || password == "" {
		return "", apperror.NewValidationError("email and password required")
	}

	// 2. Buscar Usuário pelo Email
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Invalid credentials")
		}
		return "", err
	}

	// 3. Comparar a senha informada com o hash salvo no DB.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Invalid credentials")
	}

	// 4. Gerar JWT
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login bem-sucedido.", map[string]interface{}{"user_id": user.ID})
	return tokenString, nil
}
