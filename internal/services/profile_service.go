package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sbpickleball/match_app/internal/auth"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/internal/security"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/sbpickleball/match_app/pkg/logger"
	"github.com/sbpickleball/match_app/pkg/utils"
)

// AvatarStore persists an uploaded avatar and returns its public URL.
type AvatarStore interface {
	PutAvatar(ctx context.Context, userID, contentType string, body io.Reader, size int64) (string, error)
}

var AllowedAvatarTypes = []string{".jpg", ".jpeg", ".png", ".webp"}

// KST is the display zone for every user-facing time.
var KST = time.FixedZone("KST", 9*60*60)

type ProfileService struct {
	profiles repositories.ProfileStore
	requests repositories.RequestStore
	regions  *RegionResolver
	avatars  AvatarStore
	maxSize  int64
	now      func() time.Time
}

func NewProfileService(store *repositories.Store, regions *RegionResolver, avatars AvatarStore, maxUploadSize int64) *ProfileService {
	return &ProfileService{
		profiles: store.Profiles,
		requests: store.Requests,
		regions:  regions,
		avatars:  avatars,
		maxSize:  maxUploadSize,
		now:      time.Now,
	}
}

// HandleAuthEvent is registered with SessionService.OnAuthStateChange.
func (s *ProfileService) HandleAuthEvent(ctx context.Context, ev auth.Event) error {
	if ev.Type != auth.SignedIn || ev.Identity == nil {
		return nil
	}
	_, err := s.EnsureProfile(ctx, ev.UserID, *ev.Identity)
	return err
}

// EnsureProfile returns the user's profile, creating it on first sign-in.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID string, id auth.Identity) (*models.Profile, error) {
	existing, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	nickname := security.SanitizeString(security.CleanText(id.Nickname), models.NicknameMaxLength)
	if !models.IsValidNickname(nickname) {
		nickname = models.DefaultNickname
	}
	skill := models.SkillBeginner

	profile := &models.Profile{
		ID:             userID,
		Provider:       id.Provider,
		ProviderUserID: id.ProviderUserID,
		Nickname:       nickname,
		SkillLevel:     &skill,
		AvatarURL:      id.AvatarURL,
		Available:      true,
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		// Lost a race with a concurrent first sign-in.
		if errors.HasCode(err, errors.ErrCodeAlreadyExists) {
			return s.profiles.GetProfile(ctx, userID)
		}
		return nil, err
	}

	logger.Info("Profile created", "user_id", userID, "provider", id.Provider)
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}

type UpdateProfileInput struct {
	Nickname   *string `json:"nickname"`
	SkillLevel *string `json:"skill_level"`
	Region     *string `json:"region"`
}

func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (*models.Profile, error) {
	var update repositories.ProfileUpdate

	if in.Nickname != nil {
		nickname := security.CleanText(*in.Nickname)
		if !models.IsValidNickname(nickname) {
			return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("닉네임은 1~%d자로 입력해 주세요", models.NicknameMaxLength))
		}
		update.Nickname = &nickname
	}
	if in.SkillLevel != nil {
		if !models.IsValidSkillLevel(*in.SkillLevel) {
			return nil, errors.New(errors.ErrCodeValidation, "알 수 없는 실력 단계예요")
		}
		update.SkillLevel = in.SkillLevel
	}
	if in.Region != nil {
		region, err := s.regions.Resolve(ctx, strings.TrimSpace(*in.Region), nil)
		if err != nil {
			return nil, err
		}
		update.RegionID = &region.ID
	}

	if update.IsEmpty() {
		return nil, errors.New(errors.ErrCodeValidation, "변경할 항목이 없어요")
	}
	if err := s.profiles.UpdateProfile(ctx, userID, update); err != nil {
		return nil, err
	}
	return s.profiles.GetProfile(ctx, userID)
}

// SetAvailability toggles whether the user's waiting requests are listed.
func (s *ProfileService) SetAvailability(ctx context.Context, userID string, available bool) (*models.Profile, error) {
	if err := s.profiles.UpdateProfile(ctx, userID, repositories.ProfileUpdate{Available: &available}); err != nil {
		return nil, err
	}
	logger.Info("Availability changed", "user_id", userID, "available", available)
	return s.profiles.GetProfile(ctx, userID)
}

func (s *ProfileService) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*models.Profile, error) {
	if s.avatars == nil {
		return nil, errors.New(errors.ErrCodeValidation, "프로필 사진 업로드를 사용할 수 없어요")
	}
	if !security.ValidateFileType(filename, AllowedAvatarTypes) {
		return nil, errors.New(errors.ErrCodeValidation, "jpg, png, webp 파일만 올릴 수 있어요")
	}
	if !security.ValidateFileSize(size, s.maxSize) {
		return nil, errors.New(errors.ErrCodeValidation, "파일이 너무 커요")
	}

	url, err := s.avatars.PutAvatar(ctx, userID, contentType, body, size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to store avatar")
	}
	if err := s.profiles.UpdateProfile(ctx, userID, repositories.ProfileUpdate{AvatarURL: &url}); err != nil {
		return nil, err
	}
	return s.profiles.GetProfile(ctx, userID)
}

type Banner struct {
	Period       string `json:"period"`
	Greeting     string `json:"greeting"`
	Headline     string `json:"headline"`
	WaitingCount int    `json:"waiting_count"`
}

type Home struct {
	Profile *models.Profile `json:"profile"`
	Region  *models.Region  `json:"region"`
	Banner  Banner          `json:"banner"`
}

// Home assembles the landing view for a signed-in user.
func (s *ProfileService) Home(ctx context.Context, userID string) (*Home, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	region, err := s.regions.Resolve(ctx, "", profile)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListWaiting(ctx, region.ID)
	if err != nil {
		return nil, err
	}

	waiting := 0
	for _, r := range reqs {
		if r.UserID != userID {
			waiting++
		}
	}

	return &Home{
		Profile: profile,
		Region:  region,
		Banner:  ContextBanner(s.now(), profile.Nickname, waiting),
	}, nil
}

// ContextBanner picks the home greeting by the hour in Korea.
func ContextBanner(now time.Time, nickname string, waiting int) Banner {
	hour := now.In(KST).Hour()

	b := Banner{WaitingCount: waiting}
	switch {
	case hour >= 5 && hour < 12:
		b.Period, b.Greeting = "morning", "좋은 아침이에요"
	case hour >= 12 && hour < 18:
		b.Period, b.Greeting = "afternoon", "즐거운 오후예요"
	case hour >= 18 && hour < 22:
		b.Period, b.Greeting = "evening", "오늘 저녁 한 게임 어때요?"
	default:
		b.Period, b.Greeting = "night", "내일 경기를 미리 잡아보세요"
	}
	if name := utils.NormalizeSpace(nickname); name != "" {
		b.Greeting = name + "님, " + b.Greeting
	}

	if waiting > 0 {
		b.Headline = fmt.Sprintf("지금 %d개의 매칭이 기다리고 있어요", waiting)
	} else {
		b.Headline = "대기중인 매칭이 없어요. 먼저 신청해 보세요!"
	}
	return b
}
