package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sbpickleball/match_app/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	kakaoAuthURL     = "https://kauth.kakao.com/oauth/authorize"
	kakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"
)

type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overridable endpoints; empty means Kakao production.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

type KakaoProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewKakaoProvider(cfg KakaoConfig) *KakaoProvider {
	authURL, tokenURL, userInfoURL := kakaoAuthURL, kakaoTokenURL, kakaoUserInfoURL
	if cfg.AuthURL != "" {
		authURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		tokenURL = cfg.TokenURL
	}
	if cfg.UserInfoURL != "" {
		userInfoURL = cfg.UserInfoURL
	}

	return &KakaoProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: userInfoURL,
	}
}

func (p *KakaoProvider) Name() string { return ProviderKakao }

func (p *KakaoProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type kakaoUser struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
	KakaoAccount struct {
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (p *KakaoProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "kakao code exchange failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to build kakao user request")
	}

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "kakao user request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeUnauthorized, fmt.Sprintf("kakao user request returned %d", resp.StatusCode))
	}

	var user kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode kakao user")
	}
	if user.ID == 0 {
		return nil, errors.New(errors.ErrCodeUnauthorized, "kakao user has no id")
	}

	return &Identity{
		Provider:       ProviderKakao,
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Nickname:       firstNonEmpty(user.KakaoAccount.Profile.Nickname, user.Properties.Nickname),
		AvatarURL:      firstNonEmpty(user.KakaoAccount.Profile.ProfileImageURL, user.Properties.ProfileImage),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
