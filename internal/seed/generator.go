// Package seed creates realistic organizational test data through the
// identity API: a department tree, positions per department and users.
package seed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bengeek06/waterfall-e2e/internal/client"
)

// Unit is an organization unit as returned by the identity service.
type Unit struct {
	ID       string
	Name     string
	ParentID string
}

// Position is a position as returned by the identity service.
type Position struct {
	ID     string
	Title  string
	UnitID string
}

// User is a created user account.
type User struct {
	ID    string
	Email string
}

// Result aggregates everything a generation run created.
type Result struct {
	Units     []Unit
	Positions []Position
	Users     []User
}

// Generator drives the identity API with an authenticated client. All
// created resources are tracked so Cleanup can remove them in reverse
// foreign-key order.
type Generator struct {
	client    *client.Client
	companyID string
	log       *zap.Logger
	faker     *gofakeit.Faker

	mu     sync.Mutex
	result Result
}

// NewGenerator builds a generator bound to one company. The seed fixes the
// fake-data stream so repeated runs produce comparable structures.
func NewGenerator(c *client.Client, companyID string, log *zap.Logger) *Generator {
	return &Generator{
		client:    c,
		companyID: companyID,
		log:       log,
		faker:     gofakeit.New(0),
	}
}

// Result returns a snapshot of everything created so far.
func (g *Generator) Result() Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Result{
		Units:     append([]Unit(nil), g.result.Units...),
		Positions: append([]Position(nil), g.result.Positions...),
		Users:     append([]User(nil), g.result.Users...),
	}
}

// GenerateOrganization creates the full department tree with positions.
func (g *Generator) GenerateOrganization(ctx context.Context, p Profile) error {
	g.log.Info("generating organizational structure")

	root, err := g.createUnit(ctx, p.RootName, "Direction Générale de l'entreprise", "")
	if err != nil {
		return err
	}
	if _, err := g.createPosition(ctx, "Directeur Général", root.ID); err != nil {
		return err
	}

	branches := append(append([]Department{}, p.CompetenceCenters...), p.BusinessLines...)
	for _, branch := range branches {
		unit, err := g.createUnit(ctx, branch.Name, branch.Description, root.ID)
		if err != nil {
			return err
		}
		if _, err := g.createPosition(ctx, "Directeur "+branch.Name, unit.ID); err != nil {
			return err
		}
		for _, sub := range branch.SubDepartments {
			subUnit, err := g.createUnit(ctx,
				branch.Name+" - "+sub,
				"Département "+sub,
				unit.ID)
			if err != nil {
				return err
			}
			if err := g.generateDepartmentTree(ctx, p, subUnit, p.DepthLevels); err != nil {
				return err
			}
		}
	}

	res := g.Result()
	g.log.Info("organization generated",
		zap.Int("units", len(res.Units)),
		zap.Int("positions", len(res.Positions)))
	return nil
}

func (g *Generator) generateDepartmentTree(ctx context.Context, p Profile, parent Unit, depth int) error {
	for i := 0; i < p.PositionsPerDepartment; i++ {
		if _, err := g.createPosition(ctx, g.positionTitle(parent.Name), parent.ID); err != nil {
			return err
		}
	}
	if depth <= 0 {
		return nil
	}
	for i := 0; i < p.FanOut; i++ {
		sub, err := g.createUnit(ctx,
			parent.Name+" - "+g.faker.BuzzWord()+" "+g.faker.NounAbstract(),
			fmt.Sprintf("Sous-département niveau %d", p.DepthLevels-depth+1),
			parent.ID)
		if err != nil {
			return err
		}
		if err := g.generateDepartmentTree(ctx, p, sub, depth-1); err != nil {
			return err
		}
	}
	return nil
}

// GenerateUsers creates count users spread over the already created
// positions, with bounded concurrency.
func (g *Generator) GenerateUsers(ctx context.Context, count int) error {
	positions := g.Result().Positions
	if len(positions) == 0 {
		return fmt.Errorf("no positions available, generate the organization first")
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i := 0; i < count; i++ {
		i := i
		eg.Go(func() error {
			pos := positions[i%len(positions)]
			return g.createUser(egCtx, pos.ID)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	g.log.Info("users generated", zap.Int("count", count))
	return nil
}

// Cleanup deletes created resources in reverse foreign-key order: users,
// then positions, then organization units leaves-first.
func (g *Generator) Cleanup(ctx context.Context) {
	res := g.Result()
	g.log.Info("cleaning up generated data",
		zap.Int("users", len(res.Users)),
		zap.Int("positions", len(res.Positions)),
		zap.Int("units", len(res.Units)))

	for i := len(res.Users) - 1; i >= 0; i-- {
		g.delete(ctx, "/api/identity/users/"+res.Users[i].ID)
	}
	for i := len(res.Positions) - 1; i >= 0; i-- {
		g.delete(ctx, "/api/identity/positions/"+res.Positions[i].ID)
	}
	for i := len(res.Units) - 1; i >= 0; i-- {
		g.delete(ctx, "/api/identity/organization_units/"+res.Units[i].ID)
	}
}

func (g *Generator) delete(ctx context.Context, path string) {
	resp, err := g.client.Delete(ctx, path)
	if err != nil {
		g.log.Warn("cleanup request failed", zap.String("path", path), zap.Error(err))
		return
	}
	if resp.Status != http.StatusNoContent {
		g.log.Warn("cleanup delete rejected", zap.String("path", path), zap.Int("status", resp.Status))
	}
}

func (g *Generator) createUnit(ctx context.Context, name, description, parentID string) (Unit, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"company_id":  g.companyID,
	}
	if parentID != "" {
		body["parent_id"] = parentID
	}
	resp, err := g.client.PostJSON(ctx, "/api/identity/organization_units", body)
	if err != nil {
		return Unit{}, err
	}
	if resp.Status != http.StatusCreated {
		return Unit{}, fmt.Errorf("create organization unit %q: status %d: %s", name, resp.Status, resp.Text())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := resp.JSON(&created); err != nil {
		return Unit{}, err
	}
	unit := Unit{ID: created.ID, Name: name, ParentID: parentID}
	g.mu.Lock()
	g.result.Units = append(g.result.Units, unit)
	g.mu.Unlock()
	return unit, nil
}

func (g *Generator) createPosition(ctx context.Context, title, unitID string) (Position, error) {
	resp, err := g.client.PostJSON(ctx, "/api/identity/positions", map[string]any{
		"title":                title,
		"organization_unit_id": unitID,
		"company_id":           g.companyID,
	})
	if err != nil {
		return Position{}, err
	}
	if resp.Status != http.StatusCreated {
		return Position{}, fmt.Errorf("create position %q: status %d: %s", title, resp.Status, resp.Text())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := resp.JSON(&created); err != nil {
		return Position{}, err
	}
	pos := Position{ID: created.ID, Title: title, UnitID: unitID}
	g.mu.Lock()
	g.result.Positions = append(g.result.Positions, pos)
	g.mu.Unlock()
	return pos, nil
}

func (g *Generator) createUser(ctx context.Context, positionID string) error {
	first := g.faker.FirstName()
	last := g.faker.LastName()
	email := fmt.Sprintf("%s.%s.%s@example.com",
		strings.ToLower(first), strings.ToLower(last), g.faker.LetterN(6))

	resp, err := g.client.PostJSON(ctx, "/api/identity/users", map[string]any{
		"email":       email,
		"password":    "TestPassword123!",
		"first_name":  first,
		"last_name":   last,
		"company_id":  g.companyID,
		"position_id": positionID,
	})
	if err != nil {
		return err
	}
	if resp.Status != http.StatusCreated {
		return fmt.Errorf("create user %q: status %d: %s", email, resp.Status, resp.Text())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := resp.JSON(&created); err != nil {
		return err
	}
	g.mu.Lock()
	g.result.Users = append(g.result.Users, User{ID: created.ID, Email: email})
	g.mu.Unlock()
	return nil
}

var positionQualifiers = []string{
	"Ingénieur", "Technicien", "Chef de projet", "Responsable", "Analyste",
	"Consultant", "Chargé d'affaires", "Coordinateur", "Expert", "Assistant",
}

func (g *Generator) positionTitle(department string) string {
	qualifier := positionQualifiers[g.faker.Number(0, len(positionQualifiers)-1)]
	if department == "" {
		return qualifier + " " + g.faker.JobDescriptor()
	}
	return qualifier + " " + department
}
