package usecase

import "emarket/internal/domain/model"

// 明細を1つでも持つ出品者は、注文全体のステータスを変更できる。
// 明細ごとのステータスは持たないので、複数出品者の注文では誰か1人の操作が全体に効く
func CanSellerMutateOrder(o model.Order, sellerID int64) bool {
	return sellerID > 0 && o.HasItemsFromSeller(sellerID)
}
