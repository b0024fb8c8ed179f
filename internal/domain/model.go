package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/artwall/artwall/pkg/database"
)

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID          string    `gorm:"type:varchar(27);primaryKey"`
	FromUserID  string    `gorm:"type:varchar(36);index;not null"`
	ToUserID    string    `gorm:"type:varchar(36);index;not null"`
	Text        string    `gorm:"type:text"`
	MessageType string    `gorm:"type:varchar(10);not null"`
	MediaURL    string    `gorm:"type:text"`
	Seen        bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (MessageModel) TableName() string { return "messages" }

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:          m.ID,
		FromUserID:  m.FromUserID,
		ToUserID:    m.ToUserID,
		Text:        m.Text,
		MessageType: m.MessageType,
		MediaURL:    m.MediaURL,
		Seen:        m.Seen,
		CreatedAt:   m.CreatedAt,
	}
}

// MessageToModel converts domain Message to MessageModel.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:          msg.ID,
		FromUserID:  msg.FromUserID,
		ToUserID:    msg.ToUserID,
		Text:        msg.Text,
		MessageType: msg.MessageType,
		MediaURL:    msg.MediaURL,
		Seen:        msg.Seen,
		CreatedAt:   msg.CreatedAt,
	}
}

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID             string               `gorm:"type:varchar(36);primaryKey"`
	Email          string               `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username       string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	FullName       string               `gorm:"type:varchar(100);not null"`
	Bio            string               `gorm:"type:text"`
	Location       string               `gorm:"type:varchar(100)"`
	ProfilePicture string               `gorm:"type:text"`
	CoverPhoto     string               `gorm:"type:text"`
	PasswordHash   string               `gorm:"type:varchar(255);not null"`
	Followers      database.StringArray `gorm:"type:text"`
	Following      database.StringArray `gorm:"type:text"`
	Connections    database.StringArray `gorm:"type:text"`
	CreatedAt      time.Time            `gorm:"autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt       `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:             m.ID,
		Email:          m.Email,
		Username:       m.Username,
		FullName:       m.FullName,
		Bio:            m.Bio,
		Location:       m.Location,
		ProfilePicture: m.ProfilePicture,
		CoverPhoto:     m.CoverPhoto,
		PasswordHash:   m.PasswordHash,
		Followers:      []string(m.Followers),
		Following:      []string(m.Following),
		Connections:    []string(m.Connections),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FullName:       u.FullName,
		Bio:            u.Bio,
		Location:       u.Location,
		ProfilePicture: u.ProfilePicture,
		CoverPhoto:     u.CoverPhoto,
		PasswordHash:   u.PasswordHash,
		Followers:      database.StringArray(u.Followers),
		Following:      database.StringArray(u.Following),
		Connections:    database.StringArray(u.Connections),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// StoryModel is the GORM model for the stories table.
type StoryModel struct {
	ID              string    `gorm:"type:varchar(36);primaryKey"`
	UserID          string    `gorm:"type:varchar(36);index;not null"`
	Content         string    `gorm:"type:text"`
	MediaURL        string    `gorm:"type:text"`
	MediaType       string    `gorm:"type:varchar(10);not null"`
	BackgroundColor string    `gorm:"type:varchar(20)"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

func (StoryModel) TableName() string { return "stories" }

// ToDomain converts StoryModel to domain Story.
func (m *StoryModel) ToDomain() *Story {
	return &Story{
		ID:              m.ID,
		UserID:          m.UserID,
		Content:         m.Content,
		MediaURL:        m.MediaURL,
		MediaType:       m.MediaType,
		BackgroundColor: m.BackgroundColor,
		CreatedAt:       m.CreatedAt,
	}
}

// StoryToModel converts domain Story to StoryModel.
func StoryToModel(s *Story) *StoryModel {
	return &StoryModel{
		ID:              s.ID,
		UserID:          s.UserID,
		Content:         s.Content,
		MediaURL:        s.MediaURL,
		MediaType:       s.MediaType,
		BackgroundColor: s.BackgroundColor,
		CreatedAt:       s.CreatedAt,
	}
}

// PostModel is the GORM model for the posts table.
type PostModel struct {
	ID        string               `gorm:"type:varchar(36);primaryKey"`
	UserID    string               `gorm:"type:varchar(36);index;not null"`
	Content   string               `gorm:"type:text"`
	ImageURLs database.StringArray `gorm:"type:text"`
	Likes     database.StringArray `gorm:"type:text"`
	CreatedAt time.Time            `gorm:"autoCreateTime;index"`
}

func (PostModel) TableName() string { return "posts" }

// ToDomain converts PostModel to domain Post.
func (m *PostModel) ToDomain() *Post {
	return &Post{
		ID:        m.ID,
		UserID:    m.UserID,
		Content:   m.Content,
		ImageURLs: []string(m.ImageURLs),
		Likes:     []string(m.Likes),
		CreatedAt: m.CreatedAt,
	}
}

// PostToModel converts domain Post to PostModel.
func PostToModel(p *Post) *PostModel {
	return &PostModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		ImageURLs: database.StringArray(p.ImageURLs),
		Likes:     database.StringArray(p.Likes),
		CreatedAt: p.CreatedAt,
	}
}

// ConnectionModel is the GORM model for the connections table.
type ConnectionModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	FromUserID string    `gorm:"type:varchar(36);index;not null"`
	ToUserID   string    `gorm:"type:varchar(36);index;not null"`
	Status     string    `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ConnectionModel) TableName() string { return "connections" }

// ToDomain converts ConnectionModel to domain Connection.
func (m *ConnectionModel) ToDomain() *Connection {
	return &Connection{
		ID:         m.ID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
	}
}

// ConnectionToModel converts domain Connection to ConnectionModel.
func ConnectionToModel(c *Connection) *ConnectionModel {
	return &ConnectionModel{
		ID:         c.ID,
		FromUserID: c.FromUserID,
		ToUserID:   c.ToUserID,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
	}
}
