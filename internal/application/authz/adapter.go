// Package authz wires the project/role authorization model onto casbin/v3,
// syncing its policies off the same read-model events the rest of the
// projection engine reduces, and exposes the grant/permission checks the
// command layer consults before issuing a token or assertion.
package authz

import (
	"strings"

	"github.com/casbin/casbin/v3/model"
	"gorm.io/gorm"
)

// PolicyRow is one casbin policy or grouping rule, stored the way
// casbin's ecosystem adapters conventionally do: one row per rule, up to
// six positional value columns.
type PolicyRow struct {
	ID    uint   `gorm:"primaryKey"`
	Ptype string `gorm:"size:16;index"`
	V0    string `gorm:"size:128"`
	V1    string `gorm:"size:128"`
	V2    string `gorm:"size:128"`
	V3    string `gorm:"size:128"`
	V4    string `gorm:"size:128"`
	V5    string `gorm:"size:128"`
}

func (PolicyRow) TableName() string { return "authz_policies" }

func (r PolicyRow) values() []string {
	vals := []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5}
	for len(vals) > 0 && vals[len(vals)-1] == "" {
		vals = vals[:len(vals)-1]
	}
	return vals
}

// GormAdapter implements casbin's persist.Adapter against PolicyRow, so the
// RBAC-with-domains model persists to the same database as every other
// read model instead of a flat policy.csv.
type GormAdapter struct {
	db *gorm.DB
}

func NewGormAdapter(db *gorm.DB) (*GormAdapter, error) {
	if err := db.AutoMigrate(&PolicyRow{}); err != nil {
		return nil, err
	}
	return &GormAdapter{db: db}, nil
}

func (a *GormAdapter) LoadPolicy(m model.Model) error {
	var rows []PolicyRow
	if err := a.db.Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		line := row.Ptype
		for _, v := range row.values() {
			line += ", " + v
		}
		if err := persistLoadPolicyLine(line, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *GormAdapter) SavePolicy(m model.Model) error {
	return a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PolicyRow{}).Error; err != nil {
			return err
		}
		for ptype, ast := range m["p"] {
			for _, rule := range ast.Policy {
				if err := tx.Create(rowFor(ptype, rule)).Error; err != nil {
					return err
				}
			}
		}
		for ptype, ast := range m["g"] {
			for _, rule := range ast.Policy {
				if err := tx.Create(rowFor(ptype, rule)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (a *GormAdapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.db.Create(rowFor(ptype, rule)).Error
}

func (a *GormAdapter) RemovePolicy(sec string, ptype string, rule []string) error {
	row := rowFor(ptype, rule)
	return a.db.Where(
		"ptype = ? AND v0 = ? AND v1 = ? AND v2 = ? AND v3 = ? AND v4 = ? AND v5 = ?",
		row.Ptype, row.V0, row.V1, row.V2, row.V3, row.V4, row.V5,
	).Delete(&PolicyRow{}).Error
}

func (a *GormAdapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	query := a.db.Where("ptype = ?", ptype)
	for i, v := range fieldValues {
		if v == "" {
			continue
		}
		query = query.Where(columnFor(fieldIndex+i)+" = ?", v)
	}
	return query.Delete(&PolicyRow{}).Error
}

func rowFor(ptype string, rule []string) *PolicyRow {
	row := &PolicyRow{Ptype: ptype}
	fields := []*string{&row.V0, &row.V1, &row.V2, &row.V3, &row.V4, &row.V5}
	for i, v := range rule {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
	return row
}

func columnFor(index int) string {
	columns := []string{"v0", "v1", "v2", "v3", "v4", "v5"}
	if index < 0 || index >= len(columns) {
		return "v0"
	}
	return columns[index]
}

// persistLoadPolicyLine mirrors casbin/v3's persist.LoadPolicyLine, kept
// local rather than imported since the persist package's helper expects a
// single comma-separated line built the same way SavePolicy's dump does.
func persistLoadPolicyLine(line string, m model.Model) error {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	tokens := strings.Split(line, ", ")
	if len(tokens) < 1 {
		return nil
	}
	key := tokens[0]
	sec := string(key[0])
	ast, ok := m[sec][key]
	if !ok {
		return nil
	}
	ast.Policy = append(ast.Policy, tokens[1:])
	return nil
}
