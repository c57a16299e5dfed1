package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

type ContactUpsert struct {
	FirstName    string            `json:"firstName,omitempty"`
	LastName     string            `json:"lastName,omitempty"`
	Name         string            `json:"name,omitempty"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// ContactPage is one page of the contacts listing plus the total the
// remote reports, when it reports one.
type ContactPage struct {
	Contacts []Contact
	Total    int
}

// ContactList is the result of an exhaustive listing. Partial is true
// when some pages failed but at least one succeeded.
type ContactList struct {
	Contacts []Contact
	Partial  bool
}

func (c *Client) ListContacts(ctx context.Context, page int) (ContactPage, error) {
	q := c.locationQuery()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageLimit))

	raw, err := c.do(ctx, http.MethodGet, "/contacts", q, nil)
	if err != nil {
		return ContactPage{}, err
	}

	records, ok := ExtractList(raw, "contacts")
	if !ok {
		c.log.Warn("contacts: unrecognized envelope, treating as empty", slog.Int("page", page))
		return ContactPage{}, nil
	}

	out := ContactPage{Contacts: make([]Contact, 0, len(records)), Total: extractTotal(raw)}
	for _, rec := range records {
		var contact Contact
		if err := json.Unmarshal(rec, &contact); err != nil {
			c.log.Warn("contacts: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		out.Contacts = append(out.Contacts, contact)
	}
	return out, nil
}

// ListAllContacts walks every page up to the configured cap. Page one is
// fetched first to learn the total; the remaining pages fan out
// concurrently and partial failure is tolerated as long as at least one
// page succeeded.
func (c *Client) ListAllContacts(ctx context.Context) (ContactList, error) {
	first, err := c.ListContacts(ctx, 1)
	if err != nil {
		return ContactList{}, err
	}

	pages := 1
	if first.Total > c.pageLimit {
		pages = (first.Total + c.pageLimit - 1) / c.pageLimit
	}
	if pages > c.maxPages {
		c.log.Warn("contacts: page count capped", slog.Int("pages", pages), slog.Int("cap", c.maxPages))
		pages = c.maxPages
	}
	if pages == 1 {
		return ContactList{Contacts: first.Contacts}, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		byPage = make(map[int][]Contact, pages)
		failed int
	)
	byPage[1] = first.Contacts

	for page := 2; page <= pages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			res, err := c.ListContacts(ctx, page)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.log.Warn("contacts: page fetch failed", slog.Int("page", page), slog.String("error", err.Error()))
				return
			}
			byPage[page] = res.Contacts
		}(page)
	}
	wg.Wait()

	out := ContactList{Partial: failed > 0}
	for page := 1; page <= pages; page++ {
		out.Contacts = append(out.Contacts, byPage[page]...)
	}
	return out, nil
}

func (c *Client) GetContact(ctx context.Context, id string) (Contact, error) {
	raw, err := c.do(ctx, http.MethodGet, "/contacts/"+id, nil, nil)
	if err != nil {
		return Contact{}, err
	}
	rec, ok := ExtractOne(raw, "contacts")
	if !ok {
		return Contact{}, fmt.Errorf("%w: empty contact response", ErrRemote)
	}
	var contact Contact
	if err := json.Unmarshal(rec, &contact); err != nil {
		return Contact{}, fmt.Errorf("crm decode contact: %w", err)
	}
	return contact, nil
}

func (c *Client) CreateContact(ctx context.Context, req ContactUpsert) (Contact, error) {
	if err := validateContactUpsert(req); err != nil {
		return Contact{}, err
	}
	raw, err := c.do(ctx, http.MethodPost, "/contacts", c.locationQuery(), req)
	if err != nil {
		return Contact{}, err
	}
	return decodeContact(raw)
}

func (c *Client) UpdateContact(ctx context.Context, id string, req ContactUpsert) (Contact, error) {
	raw, err := c.do(ctx, http.MethodPut, "/contacts/"+id, nil, req)
	if err != nil {
		if c.forgive403 && IsForbidden(err) {
			c.log.Warn("contacts: forgiving 403 on write", slog.String("contact_id", id))
			return Contact{ID: id, Tags: req.Tags}, nil
		}
		return Contact{}, err
	}
	return decodeContact(raw)
}

// UpdateContactTags replaces the full tag set on the remote contact.
func (c *Client) UpdateContactTags(ctx context.Context, id string, tags []string) (Contact, error) {
	return c.UpdateContact(ctx, id, ContactUpsert{Tags: tags})
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/contacts/"+id, nil, nil)
	if err != nil && c.forgive403 && IsForbidden(err) {
		c.log.Warn("contacts: forgiving 403 on delete", slog.String("contact_id", id))
		return nil
	}
	return err
}

func decodeContact(raw []byte) (Contact, error) {
	rec, ok := ExtractOne(raw, "contacts")
	if !ok {
		return Contact{}, fmt.Errorf("%w: empty contact response", ErrRemote)
	}
	var contact Contact
	if err := json.Unmarshal(rec, &contact); err != nil {
		return Contact{}, fmt.Errorf("crm decode contact: %w", err)
	}
	return contact, nil
}

func validateContactUpsert(req ContactUpsert) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}
	if name == "" {
		return fmt.Errorf("%w: contact name is required", ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: contact email is required", ErrValidation)
	}
	return nil
}

func extractTotal(body []byte) int {
	var meta struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return 0
	}
	if meta.Meta.Total > 0 {
		return meta.Meta.Total
	}
	return meta.Total
}
