package crm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	raw, err := c.do(ctx, http.MethodGet, "/users", c.locationQuery(), nil)
	if err != nil {
		return nil, err
	}
	records, ok := ExtractList(raw, "users")
	if !ok {
		c.log.Warn("users: unrecognized envelope, treating as empty")
		return []User{}, nil
	}
	users := make([]User, 0, len(records))
	for _, rec := range records {
		var user User
		if err := json.Unmarshal(rec, &user); err != nil {
			c.log.Warn("users: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (c *Client) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	raw, err := c.do(ctx, http.MethodGet, "/campaigns", c.locationQuery(), nil)
	if err != nil {
		return nil, err
	}
	records, ok := ExtractList(raw, "campaigns")
	if !ok {
		c.log.Warn("campaigns: unrecognized envelope, treating as empty")
		return []Campaign{}, nil
	}
	campaigns := make([]Campaign, 0, len(records))
	for _, rec := range records {
		var campaign Campaign
		if err := json.Unmarshal(rec, &campaign); err != nil {
			c.log.Warn("campaigns: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

func (c *Client) ListOpportunities(ctx context.Context, pipelineID string) ([]Opportunity, error) {
	q := c.locationQuery()
	if pipelineID != "" {
		q.Set("pipelineId", pipelineID)
	}
	raw, err := c.do(ctx, http.MethodGet, "/opportunities", q, nil)
	if err != nil {
		return nil, err
	}
	records, ok := ExtractList(raw, "opportunities")
	if !ok {
		c.log.Warn("opportunities: unrecognized envelope, treating as empty")
		return []Opportunity{}, nil
	}
	opportunities := make([]Opportunity, 0, len(records))
	for _, rec := range records {
		var opp Opportunity
		if err := json.Unmarshal(rec, &opp); err != nil {
			c.log.Warn("opportunities: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		opportunities = append(opportunities, opp)
	}
	return opportunities, nil
}
