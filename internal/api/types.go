package api

type initializeRequest struct {
	Secret  string `json:"secret"`
	Confirm string `json:"confirm"`
}

type importRequest struct {
	Name      string `json:"name,omitempty"`
	Mnemonic  string `json:"mnemonic,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	Secret    string `json:"secret"`
	Confirm   string `json:"confirm"`
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type changeSecretRequest struct {
	OldSecret string `json:"oldSecret"`
	NewSecret string `json:"newSecret"`
}

type addWalletRequest struct {
	Name      string `json:"name,omitempty"`
	Mnemonic  string `json:"mnemonic,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
}

type renameWalletRequest struct {
	Name string `json:"name"`
}

type transferRequest struct {
	WalletID    string `json:"walletId,omitempty"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	Mint        string `json:"mint,omitempty"`
	Decimals    int    `json:"decimals,omitempty"`
}

type endpointRequest struct {
	Endpoint string `json:"endpoint"`
}

type settingsRequest struct {
	BalancePollSeconds int    `json:"balancePollSeconds,omitempty"`
	AutoLogoutMinutes  int    `json:"autoLogoutMinutes,omitempty"`
	Theme              string `json:"theme,omitempty"`
}

type statusResponse struct {
	Initialized   bool   `json:"initialized"`
	Authenticated bool   `json:"authenticated"`
	CurrentSlot   uint64 `json:"currentSlot,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
