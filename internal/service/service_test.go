package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/toodl/toodl/internal/auth"
	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage/sqlite"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "toodl-service-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	svc := New(store, authenticator, jwtManager, slog.Default())

	server := httptest.NewServer(svc.Routes())
	t.Cleanup(server.Close)
	return server
}

// doJSON performs a request and decodes the response body into out (if
// non-nil), returning the status code.
func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, server.URL+path, &reqBody)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response (%s %s, status %d): %v", method, path, resp.StatusCode, err)
		}
	}
	return resp.StatusCode
}

func registerUser(t *testing.T, server *httptest.Server, email, name string) string {
	t.Helper()
	var session sessionResponse
	status := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":       email,
		"displayName": name,
		"password":    "hunter22isfine",
	}, &session)
	if status != http.StatusCreated {
		t.Fatalf("Register returned status %d", status)
	}
	if session.Token == "" {
		t.Fatal("Expected a session token")
	}
	return session.Token
}

func createGroup(t *testing.T, server *httptest.Server, token string, members ...string) *models.Group {
	t.Helper()
	var group models.Group
	status := doJSON(t, server, http.MethodPost, "/api/groups", token, map[string]any{
		"name":     "Trip",
		"currency": "USD",
		"members":  members,
	}, &group)
	if status != http.StatusCreated {
		t.Fatalf("CreateGroup returned status %d", status)
	}
	return &group
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)

	t.Run("register then login", func(t *testing.T) {
		registerUser(t, server, "alice@example.com", "Alice")

		var session sessionResponse
		status := doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "hunter22isfine",
		}, &session)
		if status != http.StatusOK {
			t.Fatalf("Login returned status %d", status)
		}
		if session.User.DisplayName != "Alice" {
			t.Errorf("DisplayName = %q, want Alice", session.User.DisplayName)
		}
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		status := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email":       "alice@example.com",
			"displayName": "Other Alice",
			"password":    "hunter22isfine",
		}, nil)
		if status != http.StatusConflict {
			t.Errorf("Duplicate register returned status %d, want 409", status)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		status := doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "not-the-password",
		}, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("Bad login returned status %d, want 401", status)
		}
	})

	t.Run("protected routes require a token", func(t *testing.T) {
		status := doJSON(t, server, http.MethodGet, "/api/groups", "", nil, nil)
		if status != http.StatusUnauthorized {
			t.Errorf("Unauthenticated request returned status %d, want 401", status)
		}
	})
}

func TestGroupAndMemberEndpoints(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "owner@example.com", "Owner")

	group := createGroup(t, server, token, "Alice", "Bob")
	if len(group.Members) != 2 {
		t.Fatalf("Members = %d, want 2", len(group.Members))
	}

	t.Run("unsupported currency rejected", func(t *testing.T) {
		status := doJSON(t, server, http.MethodPost, "/api/groups", token, map[string]any{
			"name":     "Bad",
			"currency": "ZZZ",
		}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", status)
		}
	})

	t.Run("add and rename member", func(t *testing.T) {
		var member models.Member
		status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/members", group.ID), token,
			map[string]string{"firstName": "Carol"}, &member)
		if status != http.StatusCreated {
			t.Fatalf("AddMember returned status %d", status)
		}

		status = doJSON(t, server, http.MethodPut, fmt.Sprintf("/api/groups/%s/members/%s", group.ID, member.ID), token,
			map[string]string{"firstName": "Caroline"}, nil)
		if status != http.StatusNoContent {
			t.Fatalf("RenameMember returned status %d", status)
		}

		var updated models.Group
		doJSON(t, server, http.MethodGet, "/api/groups/"+group.ID, token, nil, &updated)
		if m := updated.MemberByID(member.ID); m == nil || m.FirstName != "Caroline" {
			t.Errorf("Rename not visible: %+v", m)
		}
	})

	t.Run("removing a referenced member conflicts", func(t *testing.T) {
		alice, bob := group.Members[0], group.Members[1]
		var expense models.Expense
		status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), token,
			map[string]any{
				"description": "Dinner",
				"amount":      "60.00",
				"paidBy":      alice.ID,
				"splits":      map[string]float64{alice.ID: 50, bob.ID: 50},
			}, &expense)
		if status != http.StatusCreated {
			t.Fatalf("CreateExpense returned status %d", status)
		}

		status = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/groups/%s/members/%s", group.ID, bob.ID), token, nil, nil)
		if status != http.StatusConflict {
			t.Errorf("RemoveMember returned status %d, want 409", status)
		}
	})
}

func TestExpenseValidation(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "owner@example.com", "Owner")
	group := createGroup(t, server, token, "Alice", "Bob")
	alice, bob := group.Members[0], group.Members[1]

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name: "valid percentage split",
			body: map[string]any{
				"description": "Dinner",
				"amount":      "90.00",
				"paidBy":      alice.ID,
				"splits":      map[string]float64{alice.ID: 50, bob.ID: 50},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "payer by first name",
			body: map[string]any{
				"description": "Taxi",
				"amount":      "20.00",
				"paidBy":      "Bob",
				"splits":      map[string]float64{alice.ID: 50, bob.ID: 50},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "weight split",
			body: map[string]any{
				"description": "Groceries",
				"amount":      "30.00",
				"paidBy":      alice.ID,
				"weights":     map[string]int64{alice.ID: 2, bob.ID: 1},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "default even split",
			body: map[string]any{
				"description": "Coffee",
				"amount":      "8.00",
				"paidBy":      alice.ID,
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "splits not summing to 100",
			body: map[string]any{
				"description": "Broken",
				"amount":      "10.00",
				"paidBy":      alice.ID,
				"splits":      map[string]float64{alice.ID: 50, bob.ID: 40},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown split member",
			body: map[string]any{
				"description": "Broken",
				"amount":      "10.00",
				"paidBy":      alice.ID,
				"splits":      map[string]float64{alice.ID: 50, "ghost": 50},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown payer",
			body: map[string]any{
				"description": "Broken",
				"amount":      "10.00",
				"paidBy":      "Nobody",
				"splits":      map[string]float64{alice.ID: 100},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "both splits and weights",
			body: map[string]any{
				"description": "Broken",
				"amount":      "10.00",
				"paidBy":      alice.ID,
				"splits":      map[string]float64{alice.ID: 100},
				"weights":     map[string]int64{alice.ID: 1},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "negative amount",
			body: map[string]any{
				"description": "Broken",
				"amount":      "-5.00",
				"paidBy":      alice.ID,
				"splits":      map[string]float64{alice.ID: 100},
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expense models.Expense
			var out any
			if tt.wantStatus == http.StatusCreated {
				out = &expense
			}
			status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), token, tt.body, out)
			if status != tt.wantStatus {
				t.Fatalf("Status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusCreated && expense.AmountMinor <= 0 {
				t.Errorf("AmountMinor = %d, want positive", expense.AmountMinor)
			}
		})
	}
}

func TestBalancesAndPlanFlow(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "alice@example.com", "Alice")
	group := createGroup(t, server, token, "Bob")
	bob := group.Members[0]

	// Alice's member record carries her account email so she can confirm
	// payments made to her.
	var alice models.Member
	status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/members", group.ID), token,
		map[string]string{"firstName": "Alice", "email": "alice@example.com"}, &alice)
	if status != http.StatusCreated {
		t.Fatalf("AddMember returned status %d", status)
	}

	// Alice pays $90, split evenly between Alice and Bob.
	status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), token,
		map[string]any{
			"description": "Hotel",
			"amount":      "90.00",
			"paidBy":      alice.ID,
			"splits":      map[string]float64{alice.ID: 50, bob.ID: 50},
		}, nil)
	if status != http.StatusCreated {
		t.Fatalf("CreateExpense returned status %d", status)
	}

	balanceOf := func(resp balancesResponse, memberID string) memberBalance {
		for _, b := range resp.Balances {
			if b.MemberID == memberID {
				return b
			}
		}
		t.Fatalf("Member %s missing from balances", memberID)
		return memberBalance{}
	}

	t.Run("balances after expense", func(t *testing.T) {
		var resp balancesResponse
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/balances", group.ID), token, nil, &resp)

		if b := balanceOf(resp, alice.ID); b.OpenMinor != 4500 {
			t.Errorf("Alice open = %d, want 4500", b.OpenMinor)
		}
		if b := balanceOf(resp, bob.ID); b.OpenMinor != -4500 {
			t.Errorf("Bob open = %d, want -4500", b.OpenMinor)
		}
		if b := balanceOf(resp, alice.ID); b.Formatted != "$45.00" {
			t.Errorf("Formatted = %q, want $45.00", b.Formatted)
		}
	})

	t.Run("plan suggests bob pays alice", func(t *testing.T) {
		var resp planResponse
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/plan", group.ID), token, nil, &resp)

		if len(resp.Transfers) != 1 {
			t.Fatalf("Transfers = %d, want 1", len(resp.Transfers))
		}
		tr := resp.Transfers[0]
		if tr.From != bob.ID || tr.To != alice.ID || tr.AmountMinor != 4500 {
			t.Errorf("Transfer = %+v, want bob->alice 4500", tr)
		}
	})

	// Bob records the payment; it stays pending.
	var settlement models.Settlement
	status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/settlements", group.ID), token,
		map[string]any{
			"payerId": bob.ID,
			"payeeId": alice.ID,
			"amount":  "45.00",
			"method":  "venmo",
		}, &settlement)
	if status != http.StatusCreated {
		t.Fatalf("CreateSettlement returned status %d", status)
	}
	if settlement.Status != models.SettlementPending {
		t.Fatalf("Status = %s, want pending", settlement.Status)
	}

	t.Run("pending settlement does not change open balances", func(t *testing.T) {
		var resp balancesResponse
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/balances", group.ID), token, nil, &resp)

		if b := balanceOf(resp, bob.ID); b.OpenMinor != -4500 {
			t.Errorf("Bob open = %d, want -4500 while pending", b.OpenMinor)
		}
		if b := balanceOf(resp, bob.ID); b.PendingSentMinor != 4500 {
			t.Errorf("Bob pending sent = %d, want 4500", b.PendingSentMinor)
		}
	})

	t.Run("member plan reflects pending payment", func(t *testing.T) {
		var resp planResponse
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/plan?member=%s", group.ID, bob.ID), token, nil, &resp)

		if resp.Member == nil {
			t.Fatal("Expected member view")
		}
		if !resp.Member.IsPendingSettlement {
			t.Error("Expected IsPendingSettlement")
		}
		if resp.Member.EffectiveOweMinor != 0 {
			t.Errorf("EffectiveOwe = %d, want 0", resp.Member.EffectiveOweMinor)
		}
		if resp.Member.TotalOweMinor != 4500 {
			t.Errorf("TotalOwe = %d, want 4500", resp.Member.TotalOweMinor)
		}
	})

	t.Run("only the payee can confirm", func(t *testing.T) {
		otherToken := registerUser(t, server, "mallory@example.com", "Mallory")
		status := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/api/groups/%s/settlements/%s/confirm", group.ID, settlement.ID), otherToken, nil, nil)
		if status != http.StatusForbidden {
			t.Errorf("Confirm by non-payee returned status %d, want 403", status)
		}
	})

	t.Run("payee confirmation settles the debt", func(t *testing.T) {
		var confirmed models.Settlement
		status := doJSON(t, server, http.MethodPost,
			fmt.Sprintf("/api/groups/%s/settlements/%s/confirm", group.ID, settlement.ID), token, nil, &confirmed)
		if status != http.StatusOK {
			t.Fatalf("Confirm returned status %d", status)
		}
		if confirmed.Status != models.SettlementConfirmed {
			t.Errorf("Status = %s, want confirmed", confirmed.Status)
		}

		var resp balancesResponse
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/balances", group.ID), token, nil, &resp)
		if b := balanceOf(resp, bob.ID); b.OpenMinor != 0 {
			t.Errorf("Bob open = %d, want 0 after confirmation", b.OpenMinor)
		}

		var plan planResponse
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/plan", group.ID), token, nil, &plan)
		if len(plan.Transfers) != 0 {
			t.Errorf("Transfers = %d, want 0 after confirmation", len(plan.Transfers))
		}
	})
}

func TestDeleteScopedToGroup(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "owner@example.com", "Owner")
	groupA := createGroup(t, server, token, "Alice", "Bob")
	groupB := createGroup(t, server, token, "Carol", "Dave")
	alice, bob := groupA.Members[0], groupA.Members[1]

	var expense models.Expense
	status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", groupA.ID), token,
		map[string]any{
			"description": "Dinner",
			"amount":      "60.00",
			"paidBy":      alice.ID,
			"splits":      map[string]float64{alice.ID: 50, bob.ID: 50},
		}, &expense)
	if status != http.StatusCreated {
		t.Fatalf("CreateExpense returned status %d", status)
	}

	var settlement models.Settlement
	status = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/settlements", groupA.ID), token,
		map[string]any{"payerId": bob.ID, "payeeId": alice.ID, "amount": "30.00"}, &settlement)
	if status != http.StatusCreated {
		t.Fatalf("CreateSettlement returned status %d", status)
	}

	t.Run("expense cannot be deleted through another group", func(t *testing.T) {
		status := doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/api/groups/%s/expenses/%s", groupB.ID, expense.ID), token, nil, nil)
		if status != http.StatusNotFound {
			t.Errorf("Cross-group delete returned status %d, want 404", status)
		}

		status = doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/api/groups/no-such-group/expenses/%s", expense.ID), token, nil, nil)
		if status != http.StatusNotFound {
			t.Errorf("Delete via missing group returned status %d, want 404", status)
		}

		var expenses []models.Expense
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/expenses", groupA.ID), token, nil, &expenses)
		if len(expenses) != 1 {
			t.Fatalf("Expenses = %d, want 1 after rejected deletes", len(expenses))
		}
	})

	t.Run("settlement cannot be deleted through another group", func(t *testing.T) {
		status := doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/api/groups/%s/settlements/%s", groupB.ID, settlement.ID), token, nil, nil)
		if status != http.StatusNotFound {
			t.Errorf("Cross-group delete returned status %d, want 404", status)
		}

		var settlements []models.Settlement
		doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/settlements", groupA.ID), token, nil, &settlements)
		if len(settlements) != 1 {
			t.Fatalf("Settlements = %d, want 1 after rejected delete", len(settlements))
		}
	})

	t.Run("delete through the owning group succeeds", func(t *testing.T) {
		status := doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/api/groups/%s/settlements/%s", groupA.ID, settlement.ID), token, nil, nil)
		if status != http.StatusNoContent {
			t.Errorf("Delete returned status %d, want 204", status)
		}
		status = doJSON(t, server, http.MethodDelete,
			fmt.Sprintf("/api/groups/%s/expenses/%s", groupA.ID, expense.ID), token, nil, nil)
		if status != http.StatusNoContent {
			t.Errorf("Delete returned status %d, want 204", status)
		}
	})
}

func TestConfirmRequiresLinkedPayeeEmail(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "owner@example.com", "Owner")
	group := createGroup(t, server, token, "Alice", "Bob")
	alice, bob := group.Members[0], group.Members[1]

	var settlement models.Settlement
	status := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/groups/%s/settlements", group.ID), token,
		map[string]any{"payerId": bob.ID, "payeeId": alice.ID, "amount": "10.00"}, &settlement)
	if status != http.StatusCreated {
		t.Fatalf("CreateSettlement returned status %d", status)
	}

	// Alice has no linked email, so nobody (not even the creator) can confirm
	// and the settlement stays pending.
	status = doJSON(t, server, http.MethodPost,
		fmt.Sprintf("/api/groups/%s/settlements/%s/confirm", group.ID, settlement.ID), token, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("Confirm returned status %d, want 403", status)
	}

	var settlements []models.Settlement
	doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/groups/%s/settlements", group.ID), token, nil, &settlements)
	if len(settlements) != 1 {
		t.Fatalf("Settlements = %d, want 1", len(settlements))
	}
	if settlements[0].Status != models.SettlementPending {
		t.Errorf("Status = %s, want pending", settlements[0].Status)
	}
}

func TestBudgetPaceEndpoint(t *testing.T) {
	server := setupTestServer(t)
	token := registerUser(t, server, "b@example.com", "Budgeter")

	t.Run("steady month stays on pace", func(t *testing.T) {
		var resp paceResponse
		status := doJSON(t, server, http.MethodPost, "/api/budgets/pace", token, map[string]any{
			"year":     2024,
			"month":    6,
			"currency": "USD",
			"budget":   "300.00",
			"entries": []map[string]any{
				{"date": "2024-06-01", "amount": "10.00"},
				{"date": "2024-06-02", "amount": "10.00"},
				{"date": "2024-06-15", "amount": "10.00", "oneTime": true},
			},
		}, &resp)
		if status != http.StatusOK {
			t.Fatalf("Status = %d", status)
		}
		if resp.Pace.DaysInMonth != 30 {
			t.Errorf("DaysInMonth = %d, want 30", resp.Pace.DaysInMonth)
		}
		// A past month evaluates every day; 3000 spent of 30000.
		if resp.Pace.DaysOnPace != 30 {
			t.Errorf("DaysOnPace = %d, want 30", resp.Pace.DaysOnPace)
		}
		if resp.Totals.SpendMinor != 3000 {
			t.Errorf("SpendMinor = %d, want 3000", resp.Totals.SpendMinor)
		}
		if resp.Totals.OneTimeMinor != 1000 {
			t.Errorf("OneTimeMinor = %d, want 1000", resp.Totals.OneTimeMinor)
		}
		if resp.FormattedSpend != "$30.00" {
			t.Errorf("FormattedSpend = %q, want $30.00", resp.FormattedSpend)
		}
	})

	t.Run("invalid month rejected", func(t *testing.T) {
		status := doJSON(t, server, http.MethodPost, "/api/budgets/pace", token, map[string]any{
			"year":   2024,
			"month":  13,
			"budget": "300.00",
		}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("Status = %d, want 400", status)
		}
	})
}
