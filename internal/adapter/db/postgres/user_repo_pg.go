package postgres

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-data-service/internal/domain/user"
	apperrors "user-data-service/pkg/errors"
	"user-data-service/pkg/security"
)

// batchSize caps the number of rows per INSERT in AddUsers.
const batchSize = 100

// UserRepoPG implements user.Repository on top of GORM.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

var _ user.Repository = (*UserRepoPG)(nil)

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// The table itself is created by the SQL migrations.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() user.User {
	return user.User{ID: m.ID, Name: m.Name, Email: m.Email}
}

// AddUser inserts one user and returns the stored record.
func (r *UserRepoPG) AddUser(ctx context.Context, in user.NewUser) (*user.User, error) {
	model := UserSchema{
		Name:  in.Name,
		Email: in.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", in.Email))
		return nil, apperrors.NewInternalError("failed to create user", err)
	}

	r.log.Debug("user created in db", zap.Int64("id", model.ID))
	u := model.toDomain()
	return &u, nil
}

// AddUsers inserts users in batches and returns the stored records in input order.
func (r *UserRepoPG) AddUsers(ctx context.Context, in []user.NewUser) ([]user.User, error) {
	if len(in) == 0 {
		return []user.User{}, nil
	}

	models := make([]UserSchema, len(in))
	for i, nu := range in {
		models[i] = UserSchema{Name: nu.Name, Email: nu.Email}
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&models, batchSize).Error; err != nil {
		r.log.Error("failed to create users in db", zap.Error(err), zap.Int("count", len(in)))
		return nil, apperrors.NewInternalError("failed to create users", err)
	}

	r.log.Debug("users created in db", zap.Int("count", len(models)))
	return toDomainSlice(models), nil
}

// GetUsers returns every user matching q, fully materialised, in the order q requests.
func (r *UserRepoPG) GetUsers(ctx context.Context, q user.Query) ([]user.User, error) {
	tx, err := r.scoped(ctx, q)
	if err != nil {
		r.log.Warn("invalid user query", zap.Error(err))
		return nil, err
	}

	for _, o := range q.OrderBy {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: string(o.Field)},
			Desc:   o.Direction == user.Desc,
		})
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var models []UserSchema
	if err := tx.Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.Int("predicates", len(q.Where)))
		return nil, apperrors.NewInternalError("failed to list users", err)
	}

	return toDomainSlice(models), nil
}

// CountUsers counts the users matching the predicates of q. Ordering and
// bounds are ignored.
func (r *UserRepoPG) CountUsers(ctx context.Context, q user.Query) (int64, error) {
	tx, err := r.scoped(ctx, user.Query{Where: q.Where})
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		r.log.Error("failed to count users in db", zap.Error(err))
		return 0, apperrors.NewInternalError("failed to count users", err)
	}
	return count, nil
}

// GetUser retrieves a user by id.
func (r *UserRepoPG) GetUser(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, apperrors.NewNotFoundError("user", id).Wrap(err)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	u := model.toDomain()
	return &u, nil
}

// UpdateUser changes only the fields set in patch and returns the updated
// record. It fails with a not-found error when no row has the given id.
func (r *UserRepoPG) UpdateUser(ctx context.Context, id int64, patch user.Patch) (*user.User, error) {
	if patch.IsEmpty() {
		return r.GetUser(ctx, id)
	}

	updates := make(map[string]any, 2)
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}

	var model UserSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserSchema{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFoundError("user", id).Wrap(gorm.ErrRecordNotFound)
		}
		return tx.First(&model, id).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			r.log.Warn("user not found for update", zap.Int64("id", id))
			return nil, err
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.Int64("id", id))
		return nil, apperrors.NewInternalError("failed to update user", err)
	}

	r.log.Debug("user updated in db", zap.Int64("id", id), zap.Int("fields", len(updates)))
	u := model.toDomain()
	return &u, nil
}

// scoped validates q and applies its predicates.
func (r *UserRepoPG) scoped(ctx context.Context, q user.Query) (*gorm.DB, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).Model(&UserSchema{})
	for _, p := range q.Where {
		column := clause.Column{Name: string(p.Field)}
		switch p.Op {
		case user.OpEquals:
			var value any = p.Value
			if p.Field == user.FieldID {
				id, _ := strconv.ParseInt(p.Value, 10, 64) // checked by Validate
				value = id
			}
			tx = tx.Where(clause.Eq{Column: column, Value: value})
		case user.OpContains:
			tx = tx.Where(clause.Expr{
				SQL:  `? LIKE ? ESCAPE '\'`,
				Vars: []any{column, "%" + security.EscapeLike(p.Value) + "%"},
			})
		}
	}
	return tx, nil
}

func toDomainSlice(models []UserSchema) []user.User {
	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = m.toDomain()
	}
	return users
}
