package accountapi

import "encoding/json"

// Token is the result of a successful authentication.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// UserID is zero when the token endpoint does not return it.
	UserID int `json:"user_id"`
}

// Identity is the account behind an access token.
type Identity struct {
	ID     int
	Email  string
	Prenom string
	Nom    string
}

// UnmarshalJSON accepts the account id under "id" or "user_id".
func (i *Identity) UnmarshalJSON(data []byte) error {
	var payload struct {
		ID     *int   `json:"id"`
		UserID *int   `json:"user_id"`
		Email  string `json:"email"`
		Prenom string `json:"prenom"`
		Nom    string `json:"nom"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*i = Identity{Email: payload.Email, Prenom: payload.Prenom, Nom: payload.Nom}
	switch {
	case payload.ID != nil:
		i.ID = *payload.ID
	case payload.UserID != nil:
		i.ID = *payload.UserID
	}
	return nil
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Genres   []int  `json:"genres"`
}

type attachGenresRequest struct {
	GenreIDs []int `json:"genre_ids"`
}

// errorBody is the error envelope of the account API. detail is usually a
// string; validation failures carry a list, which is not forwarded.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func parseDetail(body []byte) string {
	var env errorBody
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(env.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
