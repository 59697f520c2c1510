package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Model 是所有实体的公共字段，主键使用 UUID 字符串。
type Model struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate 在插入前生成 UUID 主键。
func (m *Model) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// User 表示站点的账号信息，内容实体均归属于某个 User。
type User struct {
	Model
	Email              string `gorm:"uniqueIndex;size:255" json:"email"`
	Name               string `gorm:"size:255" json:"name"`
	Role               string `gorm:"size:32;default:owner" json:"role"`
	PasswordHash       string `gorm:"size:255" json:"-"`
	MustChangePassword bool   `json:"-"`
}

// AuthorRef 是嵌入在响应中的作者摘要。
type AuthorRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Ref 返回作者摘要。
func (u User) Ref() AuthorRef {
	return AuthorRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Project 表示作品集中的一个项目，published=false 时仅作者可见。
type Project struct {
	Model
	Title           string         `gorm:"size:255" json:"title"`
	Slug            string         `gorm:"uniqueIndex;size:255" json:"slug"`
	Description     string         `json:"description"`
	LongDescription string         `json:"longDescription,omitempty"`
	ImageURL        string         `gorm:"size:512" json:"imageUrl,omitempty"`
	Images          datatypes.JSON `json:"images,omitempty"`
	Technologies    datatypes.JSON `json:"technologies,omitempty"`
	ProjectURL      string         `gorm:"size:512" json:"projectUrl,omitempty"`
	GithubURL       string         `gorm:"size:512" json:"githubUrl,omitempty"`
	Featured        bool           `json:"featured"`
	Published       bool           `gorm:"default:true" json:"published"`
	SortOrder       int            `json:"sortOrder"`
	PublishedAt     *time.Time     `json:"publishedAt,omitempty"`
	AuthorID        string         `gorm:"index;size:36" json:"authorId"`
	Author          User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Skills          []Skill        `gorm:"many2many:project_skills;constraint:OnDelete:CASCADE" json:"-"`
}

// BlogPost 表示博客文章。PublishedAt 记录首次发布时间，此后不再改写。
type BlogPost struct {
	Model
	Title           string         `gorm:"size:255" json:"title"`
	Slug            string         `gorm:"uniqueIndex;size:255" json:"slug"`
	Excerpt         string         `json:"excerpt,omitempty"`
	Content         string         `json:"content"`
	FeaturedImage   string         `gorm:"size:512" json:"featuredImage,omitempty"`
	Tags            datatypes.JSON `json:"tags,omitempty"`
	Category        string         `gorm:"size:255;index" json:"category,omitempty"`
	ReadTime        int            `json:"readTime,omitempty"`
	Views           int64          `json:"views"`
	Featured        bool           `json:"featured"`
	Published       bool           `gorm:"default:false" json:"published"`
	MetaTitle       string         `gorm:"size:255" json:"metaTitle,omitempty"`
	MetaDescription string         `json:"metaDescription,omitempty"`
	OgImage         string         `gorm:"size:512" json:"ogImage,omitempty"`
	SortOrder       int            `json:"sortOrder"`
	PublishedAt     *time.Time     `json:"publishedAt,omitempty"`
	AuthorID        string         `gorm:"index;size:36" json:"authorId"`
	Author          User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Skill 表示技能条目，name 全局唯一。
type Skill struct {
	Model
	Name        string         `gorm:"uniqueIndex;size:255" json:"name"`
	Category    string         `gorm:"size:255;index" json:"category"`
	Proficiency int            `json:"proficiency"`
	Description string         `json:"description,omitempty"`
	Icon        string         `gorm:"size:512" json:"icon,omitempty"`
	Featured    bool           `json:"featured"`
	SortOrder   int            `json:"sortOrder"`
	Tags        datatypes.JSON `json:"tags,omitempty"`
	AuthorID    string         `gorm:"index;size:36" json:"authorId"`
	Author      User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ProjectSkill 是项目与技能的关联表，随两侧级联删除。
type ProjectSkill struct {
	ProjectID string    `gorm:"primaryKey;size:36" json:"projectId"`
	SkillID   string    `gorm:"primaryKey;size:36" json:"skillId"`
	Project   Project   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Skill     Skill     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Experience 表示工作经历，currentJob 为真时 EndDate 为空。
type Experience struct {
	Model
	Company          string         `gorm:"size:255" json:"company"`
	Position         string         `gorm:"size:255" json:"position"`
	Location         string         `gorm:"size:255" json:"location,omitempty"`
	Description      string         `json:"description"`
	Responsibilities datatypes.JSON `json:"responsibilities,omitempty"`
	Achievements     string         `json:"achievements,omitempty"`
	CompanyLogo      string         `gorm:"size:512" json:"companyLogo,omitempty"`
	CurrentJob       bool           `json:"currentJob"`
	SortOrder        int            `json:"sortOrder"`
	StartDate        time.Time      `json:"startDate"`
	EndDate          *time.Time     `json:"endDate,omitempty"`
	AuthorID         string         `gorm:"index;size:36" json:"authorId"`
	Author           User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Education 表示教育经历，currentStudent 为真时 EndDate 为空。
type Education struct {
	Model
	Institution     string     `gorm:"size:255" json:"institution"`
	Degree          string     `gorm:"size:255" json:"degree"`
	Field           string     `gorm:"size:255" json:"field"`
	Location        string     `gorm:"size:255" json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	GPA             string     `gorm:"column:gpa;size:32" json:"gpa,omitempty"`
	Honors          string     `json:"honors,omitempty"`
	InstitutionLogo string     `gorm:"size:512" json:"institutionLogo,omitempty"`
	CurrentStudent  bool       `json:"currentStudent"`
	SortOrder       int        `json:"sortOrder"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	AuthorID        string     `gorm:"index;size:36" json:"authorId"`
	Author          User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// PersonalInfo 表示个人资料，每个用户至多一行。
type PersonalInfo struct {
	Model
	UserID      string         `gorm:"uniqueIndex;size:36" json:"userId"`
	User        User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FirstName   string         `gorm:"size:255" json:"firstName"`
	LastName    string         `gorm:"size:255" json:"lastName"`
	Title       string         `gorm:"size:255" json:"title,omitempty"`
	Bio         string         `json:"bio,omitempty"`
	Avatar      string         `gorm:"size:512" json:"avatar,omitempty"`
	Location    string         `gorm:"size:255" json:"location,omitempty"`
	Phone       string         `gorm:"size:64" json:"phone,omitempty"`
	Email       string         `gorm:"size:255" json:"email,omitempty"`
	Website     string         `gorm:"size:512" json:"website,omitempty"`
	ResumeURL   string         `gorm:"size:512" json:"resumeUrl,omitempty"`
	SocialLinks datatypes.JSON `json:"socialLinks,omitempty"`
	Skills      string         `json:"skills,omitempty"`
	Languages   datatypes.JSON `json:"languages,omitempty"`
	Interests   string         `json:"interests,omitempty"`
	IsPublic    bool           `gorm:"default:true" json:"isPublic"`
}

// SiteSetting 是类型化的键值配置，key 全局唯一。
type SiteSetting struct {
	Model
	Key         string `gorm:"uniqueIndex;size:255" json:"key"`
	Value       string `json:"value"`
	Type        string `gorm:"size:16;default:text" json:"type"`
	Description string `json:"description,omitempty"`
	Category    string `gorm:"size:255;default:general;index" json:"category"`
	Public      bool   `json:"public"`
	AuthorID    string `gorm:"index;size:36" json:"authorId"`
	Author      User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ContactMessage 表示联系表单留言，status 流转：pending → read → replied → archived。
type ContactMessage struct {
	Model
	Name       string `gorm:"size:255" json:"name"`
	Email      string `gorm:"size:255" json:"email"`
	Subject    string `gorm:"size:255" json:"subject"`
	Message    string `json:"message"`
	Phone      string `gorm:"size:64" json:"phone,omitempty"`
	Company    string `gorm:"size:255" json:"company,omitempty"`
	Website    string `gorm:"size:512" json:"website,omitempty"`
	Newsletter bool   `json:"newsletter"`
	Source     string `gorm:"size:255" json:"source,omitempty"`
	Status     string `gorm:"size:32;default:pending;index" json:"status"`
	IP         string `gorm:"size:64" json:"-"`
	UserAgent  string `gorm:"size:512" json:"-"`
}

// AllModels 返回 AutoMigrate 所需的全部模型。
func AllModels() []any {
	return []any{
		&User{},
		&Project{},
		&BlogPost{},
		&Skill{},
		&ProjectSkill{},
		&Experience{},
		&Education{},
		&PersonalInfo{},
		&SiteSetting{},
		&ContactMessage{},
	}
}
