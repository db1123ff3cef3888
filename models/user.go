package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Username     string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name         string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email        *string   `gorm:"size:100;unique" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Password     string    `gorm:"size:255;not null" json:"password"`
	IsActive     *bool     `gorm:"not null" json:"is_active"`
	Role         UserRole  `gorm:"type:enum('A', 'M');default:M" json:"role"`
	MinisterioId int       `gorm:"index;default:0" json:"ministerio_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username     string   `json:"username" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Password     string   `json:"password" binding:"required"`
	Role         UserRole `json:"role" binding:"required"`
	MinisterioId int      `json:"ministerio_id"`
}

type LoginInfo struct {
	Token        string `json:"token"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	MinisterioId int    `json:"ministerio_id"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, utils.NewValidationError("email %q is not valid", input.Email)
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, utils.NewValidationError("phone %q is not valid", input.Phone)
		}
	}
	if input.Role == UserRoleMinisterio && input.MinisterioId <= 0 {
		return nil, utils.NewValidationError("ministerio_id is required for ministry users")
	}
	if input.MinisterioId > 0 {
		if _, err := GetMinisterio(ctx, input.MinisterioId); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     strings.TrimSpace(input.Username),
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Password:     string(hash),
		IsActive:     utils.NewTrue(),
		Role:         input.Role,
		MinisterioId: input.MinisterioId,
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		user.Email = &email
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Create(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	db := config.GetDB()
	err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("user %q not found", username)
		}
		return nil, err
	}
	return &user, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New("invalid username or password")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role), user.MinisterioId, user.Name)
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:        token,
		Name:         user.Name,
		Role:         string(user.Role),
		MinisterioId: user.MinisterioId,
	}, nil
}
