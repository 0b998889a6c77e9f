package vnpay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shoppay/internal/payment"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		params payment.Params
		want   string
	}{
		{
			name:   "sorted byte-wise",
			params: payment.Params{"b": "2", "a": "1", "A": "0"},
			want:   "A=0&a=1&b=2",
		},
		{
			name:   "empty values dropped",
			params: payment.Params{"vnp_BankCode": "", "vnp_Amount": "100"},
			want:   "vnp_Amount=100",
		},
		{
			name:   "space encodes as %20",
			params: payment.Params{"vnp_OrderInfo": "Thanh toan don hang 42"},
			want:   "vnp_OrderInfo=Thanh%20toan%20don%20hang%2042",
		},
		{
			name:   "reserved characters escaped",
			params: payment.Params{"vnp_ReturnUrl": "https://shop.test/return?x=1&y=a+b"},
			want:   "vnp_ReturnUrl=https%3A%2F%2Fshop.test%2Freturn%3Fx%3D1%26y%3Da%2Bb",
		},
		{
			name:   "nothing to encode",
			params: payment.Params{"a": ""},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.params))
		})
	}
}

func TestEncode_OrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"vnp_TxnRef", "665f1c"},
		{"vnp_Amount", "25000000"},
		{"vnp_OrderInfo", "Thanh toan don hang"},
		{"vnp_Locale", "vn"},
		{"vnp_BankCode", ""},
	}

	build := func(order []int) payment.Params {
		p := payment.Params{}
		for _, i := range order {
			p[pairs[i][0]] = pairs[i][1]
		}
		return p
	}

	want := Encode(build([]int{0, 1, 2, 3, 4}))
	for _, order := range [][]int{{4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {1, 3, 0, 4, 2}} {
		assert.Equal(t, want, Encode(build(order)))
	}
}
