package model

// BlockDefinition is a reusable workflow step template. Built-in definitions
// are declared in code and never persisted; custom definitions created by
// users are stored with a "custom-" prefixed ID.
type BlockDefinition struct {
	BaseModel
	DefID       string `gorm:"type:varchar(100);column:def_id;not null;uniqueIndex" json:"defId"` // Stable reference ID used by workflow blocks ("create", "custom-<uuid>", ...)
	Name        string `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Description string `gorm:"type:text;column:description" json:"description"`
	Color       string `gorm:"type:varchar(50);column:color" json:"color"`
	Icon        string `gorm:"type:varchar(100);column:icon" json:"icon"`
	BuiltIn     bool   `gorm:"column:built_in;not null;default:false" json:"builtIn"`
}

func (b *BlockDefinition) TableName() string {
	return "block_definitions"
}

// Built-in block type identifiers. The declared order here is the order the
// registry lists them in.
const (
	BlockTypeCreate  = "create"
	BlockTypeReview  = "review"
	BlockTypeApprove = "approve"
	BlockTypePublish = "publish"
	BlockTypeAlert   = "alert"
)

// DefaultStepLabel is the placeholder label a block receives before the
// editor names it.
const DefaultStepLabel = "New Step"

// BuiltinBlocks returns the fixed set of built-in block definitions in
// declared order.
func BuiltinBlocks() []BlockDefinition {
	return []BlockDefinition{
		{DefID: BlockTypeCreate, Name: "Create Content", Description: "Produce the content for this campaign step", Color: "#2563eb", Icon: "file-text", BuiltIn: true},
		{DefID: BlockTypeReview, Name: "Review", Description: "Review the produced content", Color: "#d97706", Icon: "check-circle", BuiltIn: true},
		{DefID: BlockTypeApprove, Name: "Approve", Description: "Approve the content for publishing", Color: "#16a34a", Icon: "check-circle", BuiltIn: true},
		{DefID: BlockTypePublish, Name: "Publish", Description: "Publish the approved content", Color: "#9333ea", Icon: "play", BuiltIn: true},
		{DefID: BlockTypeAlert, Name: "Alert", Description: "Notify stakeholders", Color: "#dc2626", Icon: "alert-circle", BuiltIn: true},
	}
}
